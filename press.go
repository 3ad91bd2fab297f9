// Package press is a file-first static publishing engine: Markdown documents
// with ordered front matter go in, assembled HTML pages, assets, and site
// artifacts come out. The Engine wires the pipeline services from a single
// Config; hosts that need finer control can use the internal services through
// the pkg facades instead.
package press

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/internal/layouts"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/logging/console"
	"github.com/goliatone/go-press/internal/logging/gologger"
	"github.com/goliatone/go-press/internal/markdown"
	"github.com/goliatone/go-press/internal/runtimeconfig"
	"github.com/goliatone/go-press/internal/server"
	"github.com/goliatone/go-press/internal/watch"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/pkg/storage"
)

// MarkdownService exports the markdown service contract for consumers of the
// press package.
type MarkdownService = interfaces.MarkdownService

// GeneratorService exports the static site generator contract.
type GeneratorService = generator.Service

// LayoutService exports the layout renderer.
type LayoutService = layouts.Service

// BuildOptions narrows the scope of an engine build.
type BuildOptions = generator.BuildOptions

// BuildResult reports aggregated build metadata.
type BuildResult = generator.BuildResult

// ImportOptions configures document normalisation runs.
type ImportOptions = interfaces.ImportOptions

// ImportResult reports the outcome of an import run.
type ImportResult = interfaces.ImportResult

// Hooks re-exports the generator lifecycle hooks.
type Hooks = generator.Hooks

// Option customises engine construction.
type Option func(*Engine)

// WithLoggerProvider overrides the logger provider derived from the logging
// configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(e *Engine) { e.provider = provider }
}

// WithStorage overrides the artifact storage provider. The default writes to
// the configured output directory on the local filesystem.
func WithStorage(provider storage.Provider) Option {
	return func(e *Engine) { e.storage = provider }
}

// WithHooks attaches build lifecycle hooks.
func WithHooks(hooks Hooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// Engine is the top level press runtime facade.
type Engine struct {
	cfg      Config
	provider interfaces.LoggerProvider
	logger   interfaces.Logger
	storage  storage.Provider
	hooks    Hooks

	markdown  *markdown.Service
	layouts   *layouts.Service
	themes    *layouts.ThemeSelector
	generator generator.Service
}

// New validates cfg and wires the pipeline services.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(engine)
	}

	if engine.provider == nil && cfg.Features.Logger {
		provider, err := newLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		engine.provider = provider
	}
	engine.logger = logging.ModuleLogger(engine.provider, "")

	if engine.storage == nil {
		engine.storage = storage.NewFilesystem(cfg.Build.OutputDir, cfg.Build.OutputDir)
	}

	if err := engine.wireMarkdown(); err != nil {
		return nil, err
	}
	if err := engine.wireLayouts(); err != nil {
		return nil, err
	}
	engine.wireGenerator()

	return engine, nil
}

func (e *Engine) wireMarkdown() error {
	var importer *markdown.Importer
	if e.cfg.Features.Import {
		targetDir := strings.TrimSpace(e.cfg.Import.TargetDir)
		if targetDir == "" {
			targetDir = e.cfg.Content.Dir
		}
		built, err := markdown.NewImporter(markdown.ImporterConfig{
			Storage:       storage.NewFilesystem(".", ""),
			TargetDir:     targetDir,
			DefaultLayout: e.cfg.Import.DefaultLayout,
			Logger:        logging.MarkdownLogger(e.provider),
		})
		if err != nil {
			return err
		}
		importer = built
	}

	service, err := markdown.NewService(markdown.Config{
		BasePath:  e.cfg.Content.Dir,
		Pattern:   e.cfg.Content.Pattern,
		Recursive: e.cfg.Content.Recursive,
		Parser:    parseOptions(e.cfg.Markdown.Parser),
	}, markdown.Dependencies{Importer: importer})
	if err != nil {
		return err
	}
	e.markdown = service
	return nil
}

func (e *Engine) wireLayouts() error {
	dirs := append([]string(nil), e.cfg.Layouts.Dirs...)
	if e.cfg.Features.Theming {
		e.themes = layouts.NewThemeSelector(layouts.ThemeConfig{
			Dir:               e.cfg.Theme.Dir,
			Name:              e.cfg.Theme.Name,
			Variant:           e.cfg.Theme.Variant,
			CSSVariablePrefix: e.cfg.Theme.CSSVariablePrefix,
			PartialFallbacks:  e.cfg.Theme.PartialFallbacks,
		}, nil)
		// The active theme's layout directory takes precedence over the
		// site's own layout roots.
		if themeLayouts := e.themes.LayoutDir(e.cfg.Theme.Name); themeLayouts != "" {
			dirs = append(dirs, themeLayouts)
		}
	}

	service, err := layouts.NewService(layouts.Config{
		Dirs:       dirs,
		Extensions: e.cfg.Layouts.Extensions,
	}, layouts.Dependencies{Logger: e.provider})
	if err != nil {
		return err
	}
	e.layouts = service
	return nil
}

func (e *Engine) wireGenerator() {
	if !e.cfg.Features.Generator {
		e.generator = generator.NewDisabledService()
		return
	}

	cfg := generator.Config{
		OutputDir: e.cfg.Build.OutputDir,
		BaseURL:   e.cfg.Site.BaseURL,
		Site: generator.SiteMetadata{
			Title:       e.cfg.Site.Title,
			Description: e.cfg.Site.Description,
			Author:      e.cfg.Site.Author,
			Language:    e.cfg.Site.Language,
			BaseURL:     e.cfg.Site.BaseURL,
			Metadata:    e.cfg.Site.Metadata,
		},
		StaticDir:       e.cfg.Build.StaticDir,
		DefaultLayout:   e.cfg.Build.DefaultLayout,
		CleanBuild:      e.cfg.Build.CleanBuild,
		Incremental:     e.cfg.Build.Incremental,
		CopyAssets:      e.cfg.Build.CopyAssets,
		GenerateSitemap: e.cfg.Build.GenerateSitemap,
		GenerateRobots:  e.cfg.Build.GenerateRobots,
		GenerateFeeds:   e.cfg.Build.GenerateFeeds,
		Workers:         e.cfg.Build.Workers,
		Parser:          parseOptions(e.cfg.Markdown.Parser),
		Theming: generator.ThemingConfig{
			Enabled:           e.cfg.Features.Theming,
			Theme:             e.cfg.Theme.Name,
			Variant:           e.cfg.Theme.Variant,
			CSSVariablePrefix: e.cfg.Theme.CSSVariablePrefix,
			PartialFallbacks:  e.cfg.Theme.PartialFallbacks,
		},
		Permalinks: generator.PermalinkConfig{
			Routes:       e.cfg.Permalinks.Routes,
			DefaultRoute: e.cfg.Permalinks.DefaultRoute,
		},
	}

	e.generator = generator.NewService(cfg, generator.Dependencies{
		Markdown: e.markdown,
		Layouts:  e.layouts,
		Themes:   e.themes,
		Storage:  e.storage,
		Logger:   e.provider,
		Hooks:    e.hooks,
	})
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// LoggerProvider exposes the configured logger provider for host integrations.
func (e *Engine) LoggerProvider() interfaces.LoggerProvider {
	return e.provider
}

// Markdown returns the document loading and rendering service.
func (e *Engine) Markdown() MarkdownService {
	return e.markdown
}

// Layouts returns the layout rendering service.
func (e *Engine) Layouts() *layouts.Service {
	return e.layouts
}

// Generator returns the static site generator.
func (e *Engine) Generator() GeneratorService {
	return e.generator
}

// Build runs a full (or scoped) site build.
func (e *Engine) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	return e.generator.Build(ctx, opts)
}

// BuildPage rebuilds the single named document.
func (e *Engine) BuildPage(ctx context.Context, path string) error {
	return e.generator.BuildPage(ctx, path)
}

// Clean removes every tracked build artifact.
func (e *Engine) Clean(ctx context.Context) error {
	return e.generator.Clean(ctx)
}

// Import normalises a foreign Markdown tree into the content directory.
func (e *Engine) Import(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error) {
	if !e.cfg.Features.Import {
		return nil, fmt.Errorf("press: import feature is disabled")
	}
	return e.markdown.ImportDirectory(ctx, dir, opts)
}

// Serve builds the site, then serves the output directory until ctx is
// cancelled. With the watch feature enabled, source changes trigger rebuilds
// and connected browsers reload.
func (e *Engine) Serve(ctx context.Context) error {
	if !e.cfg.Features.Server {
		return fmt.Errorf("press: server feature is disabled")
	}

	if _, err := e.Build(ctx, BuildOptions{}); err != nil {
		e.logger.Warn("initial build reported errors", "error", err)
	}

	srv, err := server.New(server.Config{
		Host:       e.cfg.Server.Host,
		Port:       e.cfg.Server.Port,
		Dir:        e.cfg.Build.OutputDir,
		LiveReload: e.cfg.Server.LiveReload,
	}, server.Dependencies{Logger: e.provider})
	if err != nil {
		return err
	}

	if e.cfg.Features.Watch {
		watcher, err := e.newWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()
		watcher.OnChange(func(ctx context.Context, events []watch.Event) error {
			if err := e.rebuildOnChange(ctx, events); err != nil {
				return err
			}
			srv.NotifyReload()
			return nil
		})
		if err := watcher.Start(ctx); err != nil {
			return err
		}
	}

	return srv.Start(ctx)
}

// Watch rebuilds on source changes without serving, for hosts that publish
// elsewhere. Blocks until ctx is cancelled.
func (e *Engine) Watch(ctx context.Context) error {
	watcher, err := e.newWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	watcher.OnChange(e.rebuildOnChange)
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (e *Engine) newWatcher() (*watch.Watcher, error) {
	paths := []string{e.cfg.Content.Dir}
	paths = append(paths, e.cfg.Layouts.Dirs...)
	if dir := strings.TrimSpace(e.cfg.Build.StaticDir); dir != "" {
		paths = append(paths, dir)
	}
	if e.cfg.Features.Theming && strings.TrimSpace(e.cfg.Theme.Dir) != "" {
		paths = append(paths, e.cfg.Theme.Dir)
	}

	return watch.New(watch.Config{
		Paths:    existingPaths(paths),
		Debounce: e.cfg.Watch.Debounce,
		Ignore:   e.cfg.Watch.Ignore,
	}, watch.Dependencies{Logger: e.provider})
}

// rebuildOnChange reloads layouts when template files changed, then runs an
// incremental build. The manifest decides which pages actually rerender.
func (e *Engine) rebuildOnChange(ctx context.Context, events []watch.Event) error {
	if layoutsTouched(events, e.cfg.Layouts.Dirs) {
		if err := e.layouts.Reload(); err != nil {
			return err
		}
	}
	result, err := e.Build(ctx, BuildOptions{})
	if err != nil {
		return err
	}
	e.logger.Info("rebuild after change",
		"events", len(events),
		"pages_built", result.PagesBuilt,
		"pages_skipped", result.PagesSkipped,
	)
	return nil
}

func existingPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		out = append(out, path)
	}
	return out
}

func layoutsTouched(events []watch.Event, layoutDirs []string) bool {
	for _, event := range events {
		for _, dir := range layoutDirs {
			dir = strings.TrimSpace(dir)
			if dir == "" {
				continue
			}
			if strings.HasPrefix(event.Path, strings.TrimSuffix(dir, "/")+"/") || event.Path == dir {
				return true
			}
		}
	}
	return false
}

func parseOptions(cfg runtimeconfig.MarkdownParserConfig) interfaces.ParseOptions {
	opts := interfaces.ParseOptions{
		Extensions: cfg.Extensions,
		Sanitize:   cfg.Sanitize,
		HardWraps:  cfg.HardWraps,
		SafeMode:   cfg.SafeMode,
	}
	if cfg.Highlight.Enabled {
		opts.Highlight = &interfaces.HighlightOptions{
			Style:       cfg.Highlight.Style,
			Inline:      cfg.Highlight.Inline,
			LineNumbers: cfg.Highlight.LineNumbers,
		}
	}
	return opts
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	default:
		level := consoleLevel(cfg.Level)
		return console.NewProvider(console.Options{MinLevel: &level}), nil
	}
}

func consoleLevel(level string) console.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return console.LevelTrace
	case "debug":
		return console.LevelDebug
	case "warn", "warning":
		return console.LevelWarn
	case "error":
		return console.LevelError
	case "fatal":
		return console.LevelFatal
	default:
		return console.LevelInfo
	}
}
