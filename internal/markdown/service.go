package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// Config controls how the Markdown service discovers and parses files.
type Config struct {
	BasePath  string
	Pattern   string
	Recursive bool
	Parser    interfaces.ParseOptions
}

// Dependencies carries the collaborators the service delegates to. Parser
// defaults to a goldmark parser built from Config.Parser; Importer is
// optional and only required for the import workflows.
type Dependencies struct {
	Parser   interfaces.MarkdownParser
	Importer *Importer
}

// Service implements interfaces.MarkdownService for filesystem-backed documents.
type Service struct {
	cfg      Config
	parser   interfaces.MarkdownParser
	loader   *Loader
	importer *Importer
}

// NewService constructs a Markdown service using an underlying loader.
func NewService(cfg Config, deps Dependencies) (*Service, error) {
	filesystem, err := prepareFilesystem(cfg.BasePath)
	if err != nil {
		return nil, err
	}

	parser := deps.Parser
	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}

	loader := NewLoader(filesystem, LoaderConfig{
		BasePath:  cfg.BasePath,
		Pattern:   cfg.Pattern,
		Recursive: cfg.Recursive,
	})

	return &Service{
		cfg:      cfg,
		parser:   parser,
		loader:   loader,
		importer: deps.Importer,
	}, nil
}

// Load reads a single document relative to the configured base path.
func (s *Service) Load(ctx context.Context, path string, opts interfaces.LoadOptions) (*interfaces.Document, error) {
	result, err := s.loader.LoadFile(ctx, s.normalisePath(path), toLoaderParams(opts))
	if err != nil {
		return nil, err
	}
	if !opts.SkipRender {
		if _, _, err := s.renderDocument(ctx, result.Document, opts.Parser); err != nil {
			return nil, err
		}
	}
	return result.Document, nil
}

// ListDocuments discovers matching source files under dir without parsing
// them. Paths come back relative to the content root in sorted order.
func (s *Service) ListDocuments(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]string, error) {
	return s.loader.List(ctx, s.normalisePath(dir), toLoaderParams(opts))
}

// LoadDirectory reads every document within the supplied directory.
func (s *Service) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Document, error) {
	results, err := s.loader.LoadDirectory(ctx, s.normalisePath(dir), toLoaderParams(opts))
	if err != nil {
		return nil, err
	}

	docs := make([]*interfaces.Document, 0, len(results))
	for _, result := range results {
		if !opts.SkipRender {
			if _, _, err := s.renderDocument(ctx, result.Document, opts.Parser); err != nil {
				return nil, err
			}
		}
		docs = append(docs, result.Document)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].FilePath < docs[j].FilePath
	})
	return docs, nil
}

// Render parses Markdown bytes into HTML using the configured parser. The
// returned warnings surface recoverable conditions, currently fences that
// never close; the HTML output still contains the remainder as fence content.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, []interfaces.RenderWarning, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	warnings := ScanFences(markdown)
	html, err := s.parser.ParseWithOptions(markdown, mergeParseOptions(s.cfg.Parser, opts))
	if err != nil {
		return nil, nil, err
	}
	return html, warnings, nil
}

// RenderDocument converts the document's Markdown body into HTML using the
// configured parser and stamps the result on the document.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, []interfaces.RenderWarning, error) {
	return s.renderDocument(ctx, doc, opts)
}

// ImportFile normalises a single foreign document into the canonical layout.
func (s *Service) ImportFile(ctx context.Context, path string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if s.importer == nil {
		return nil, ErrImporterRequired
	}
	return s.importer.ImportFile(ctx, path, opts)
}

// ImportDirectory normalises every foreign document under dir.
func (s *Service) ImportDirectory(ctx context.Context, dir string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if s.importer == nil {
		return nil, ErrImporterRequired
	}
	return s.importer.ImportDirectory(ctx, dir, opts)
}

func (s *Service) renderDocument(ctx context.Context, doc *interfaces.Document, overrides interfaces.ParseOptions) ([]byte, []interfaces.RenderWarning, error) {
	if doc == nil {
		return nil, nil, ErrNilDocument
	}
	html, warnings, err := s.Render(ctx, doc.Body, overrides)
	if err != nil {
		return nil, nil, fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	for i := range warnings {
		warnings[i].Source = doc.FilePath
	}
	doc.BodyHTML = html
	doc.Warnings = warnings
	return html, warnings, nil
}

func (s *Service) normalisePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "."
	}
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && strings.TrimSpace(s.cfg.BasePath) != "" {
		if rel, err := filepath.Rel(s.cfg.BasePath, clean); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string(nil), override.Extensions...)
	}
	if override.Sanitize {
		result.Sanitize = true
	}
	if override.HardWraps {
		result.HardWraps = true
	}
	if override.SafeMode {
		result.SafeMode = true
	}
	if override.Highlight != nil {
		clone := *override.Highlight
		result.Highlight = &clone
	}
	return result
}

func toLoaderParams(opts interfaces.LoadOptions) LoadParams {
	return LoadParams{
		Pattern:   opts.Pattern,
		Recursive: opts.Recursive,
	}
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
