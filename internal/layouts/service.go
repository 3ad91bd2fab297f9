package layouts

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// Config captures the layout service inputs.
type Config struct {
	// Dirs lists layout roots in ascending precedence.
	Dirs []string
	// Extensions filters candidate files. Defaults to .html and .tmpl.
	Extensions []string
}

// Dependencies lists optional collaborators for the service.
type Dependencies struct {
	Logger interfaces.LoggerProvider
	// Funcs extends the template function map before layouts are parsed.
	Funcs template.FuncMap
}

// Service renders documents through registered layouts and implements
// interfaces.TemplateRenderer for callers that only need name-based renders.
type Service struct {
	registry *Registry
	logger   interfaces.Logger

	mu     sync.RWMutex
	funcs  template.FuncMap
	global any
}

// NewService loads the configured layout directories and returns the service.
func NewService(cfg Config, deps Dependencies) (*Service, error) {
	svc := &Service{
		logger: logging.LayoutsLogger(deps.Logger),
		funcs:  template.FuncMap{},
	}
	for name, fn := range deps.Funcs {
		svc.funcs[name] = fn
	}

	svc.registry = NewRegistry(RegistryConfig{
		Dirs:       cfg.Dirs,
		Extensions: cfg.Extensions,
		Funcs:      svc.templateFuncs(),
	})
	if err := svc.registry.Load(); err != nil {
		return nil, err
	}

	svc.logger.Debug("layouts loaded", "layouts", svc.registry.Names())
	return svc, nil
}

// Reload re-reads every layout directory. Used by watch mode after template
// files change.
func (s *Service) Reload() error {
	if err := s.registry.Load(); err != nil {
		return err
	}
	s.logger.Debug("layouts reloaded", "layouts", s.registry.Names())
	return nil
}

// Has reports whether the named layout is registered.
func (s *Service) Has(name string) bool {
	return s.registry.Has(name)
}

// Names returns the registered layout names in sorted order.
func (s *Service) Names() []string {
	return s.registry.Names()
}

// RenderLayout renders data through the named layout. The source argument
// identifies the document that requested the layout and is carried on the
// not-found error.
func (s *Service) RenderLayout(layout string, source string, data any) (string, error) {
	tpl, ok := s.registry.Lookup(layout)
	if !ok {
		return "", &LayoutNotFoundError{
			Layout: layout,
			Source: source,
			Known:  s.registry.Names(),
		}
	}

	var buffer bytes.Buffer
	if err := tpl.ExecuteTemplate(&buffer, layout, data); err != nil {
		return "", fmt.Errorf("layouts: execute layout %q: %w", layout, err)
	}
	return buffer.String(), nil
}

// Render satisfies interfaces.TemplateRenderer.
func (s *Service) Render(name string, data any, out ...io.Writer) (string, error) {
	return s.RenderTemplate(name, data, out...)
}

// RenderTemplate renders the named layout, writing to out when provided.
func (s *Service) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	rendered, err := s.RenderLayout(name, "", data)
	if err != nil {
		return "", err
	}
	if len(out) > 0 && out[0] != nil {
		if _, err := io.WriteString(out[0], rendered); err != nil {
			return "", err
		}
		return "", nil
	}
	return rendered, nil
}

// RenderString parses content as an inline template and renders it with the
// same function map layouts use.
func (s *Service) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tpl, err := template.New("inline").Funcs(s.templateFuncs()).Parse(content)
	if err != nil {
		return "", err
	}

	var writer io.Writer
	var buffer *bytes.Buffer
	if len(out) > 0 && out[0] != nil {
		writer = out[0]
	} else {
		buffer = &bytes.Buffer{}
		writer = buffer
	}

	if err := tpl.Execute(writer, data); err != nil {
		return "", err
	}
	if buffer != nil {
		return buffer.String(), nil
	}
	return "", nil
}

// RegisterFunc adds a template function and re-parses the layout set so the
// function is visible to every layout.
func (s *Service) RegisterFunc(name string, fn any) error {
	if name == "" || fn == nil {
		return fmt.Errorf("layouts: register func requires name and implementation")
	}
	s.mu.Lock()
	s.funcs[name] = fn
	s.mu.Unlock()

	s.registry.cfg.Funcs = s.templateFuncs()
	return s.registry.Load()
}

// GlobalContext stores a value exposed to every template through the global
// helper.
func (s *Service) GlobalContext(data any) error {
	s.mu.Lock()
	s.global = data
	s.mu.Unlock()
	return nil
}

func (s *Service) templateFuncs() template.FuncMap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	funcs := template.FuncMap{
		"global": func() any {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.global
		},
	}
	for name, fn := range s.funcs {
		funcs[name] = fn
	}
	return funcs
}
