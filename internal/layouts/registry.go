package layouts

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// PartialsDir is the directory name, relative to each layout root, whose
// files become shared fragments instead of layouts.
const PartialsDir = "partials"

var defaultExtensions = []string{".html", ".tmpl"}

// RegistryConfig controls where layouts are discovered.
type RegistryConfig struct {
	// Dirs lists layout roots in ascending precedence: a layout or partial in
	// a later directory replaces one with the same name from an earlier one.
	Dirs []string
	// Extensions filters candidate files. Defaults to .html and .tmpl.
	Extensions []string
	// Funcs is merged into the function map available to every template.
	Funcs template.FuncMap
}

// Registry holds the parsed layout set. Layouts are cloned from a shared base
// so partials are available everywhere while layout-local defines stay
// isolated.
type Registry struct {
	cfg RegistryConfig

	mu      sync.RWMutex
	layouts map[string]*template.Template
	names   []string
}

// NewRegistry builds an empty registry; call Load before rendering.
func NewRegistry(cfg RegistryConfig) *Registry {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), defaultExtensions...)
	}
	return &Registry{
		cfg:     cfg,
		layouts: map[string]*template.Template{},
	}
}

// Load walks the configured directories and (re)parses every layout and
// partial. Safe to call again after files change; renders in flight keep the
// set they resolved.
func (r *Registry) Load() error {
	partialFiles := map[string]string{}
	layoutFiles := map[string]string{}

	for _, dir := range r.cfg.Dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		if err := r.collect(dir, partialFiles, layoutFiles); err != nil {
			return err
		}
	}

	if len(layoutFiles) == 0 {
		return fmt.Errorf("%w in %s", ErrNoLayouts, strings.Join(r.cfg.Dirs, ", "))
	}

	base := template.New("layouts").Funcs(r.funcs())
	for name, file := range partialFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("layouts: read partial %s: %w", file, err)
		}
		if _, err := base.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("layouts: parse partial %s: %w", file, err)
		}
	}

	layouts := make(map[string]*template.Template, len(layoutFiles))
	names := make([]string, 0, len(layoutFiles))
	for name, file := range layoutFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("layouts: read layout %s: %w", file, err)
		}
		tpl, err := base.Clone()
		if err != nil {
			return fmt.Errorf("layouts: clone base for %s: %w", name, err)
		}
		if _, err := tpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("layouts: parse layout %s: %w", file, err)
		}
		layouts[name] = tpl
		names = append(names, name)
	}
	sort.Strings(names)

	r.mu.Lock()
	r.layouts = layouts
	r.names = names
	r.mu.Unlock()
	return nil
}

// collect gathers partial and layout files under dir, keyed by their
// registry names. Later calls overwrite earlier entries.
func (r *Registry) collect(dir string, partials, layouts map[string]string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("layouts: inspect layout directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("layouts: layout path %q is not a directory", dir)
	}

	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if !r.matchesExtension(path) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		name := strings.TrimSuffix(rel, filepath.Ext(rel))

		if inside, ok := strings.CutPrefix(name, PartialsDir+"/"); ok {
			partials[PartialsDir+"/"+inside] = path
			return nil
		}
		layouts[name] = path
		return nil
	})
}

func (r *Registry) matchesExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range r.cfg.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func (r *Registry) funcs() template.FuncMap {
	funcs := template.FuncMap{
		"safeHTML": func(value any) template.HTML { return toHTML(value) },
	}
	for name, fn := range r.cfg.Funcs {
		funcs[name] = fn
	}
	return funcs
}

// Lookup returns the template holding the named layout.
func (r *Registry) Lookup(name string) (*template.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.layouts[name]
	return tpl, ok
}

// Has reports whether the named layout is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered layout names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

func toHTML(value any) template.HTML {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case template.HTML:
		return v
	case string:
		return template.HTML(v)
	default:
		return template.HTML(fmt.Sprint(v))
	}
}
