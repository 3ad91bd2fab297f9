// Package runtimeconfig holds the serialisable configuration surface for the
// press engine. Fields use simple types so host applications can embed and
// extend the config, and so press.yaml files map onto it directly.
package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrContentDirRequired = errors.New("press config: content directory is required")
var ErrOutputDirRequired = errors.New("press config: build output directory is required")
var ErrLayoutDirRequired = errors.New("press config: at least one layout directory is required")
var ErrThemeNameRequired = errors.New("press config: theme name is required when theming is enabled")
var ErrWorkersInvalid = errors.New("press config: build workers must be zero or positive")
var ErrServerPortInvalid = errors.New("press config: server port is out of range")
var ErrWatchDebounceInvalid = errors.New("press config: watch debounce must be zero or positive")
var ErrLoggingProviderRequired = errors.New("press config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("press config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("press config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("press config: logging format is invalid")

// Config aggregates feature flags and component bindings for the press engine.
type Config struct {
	Site       SiteConfig       `mapstructure:"site"`
	Content    ContentConfig    `mapstructure:"content"`
	Markdown   MarkdownConfig   `mapstructure:"markdown"`
	Layouts    LayoutsConfig    `mapstructure:"layouts"`
	Theme      ThemeConfig      `mapstructure:"theme"`
	Build      BuildConfig      `mapstructure:"build"`
	Permalinks PermalinksConfig `mapstructure:"permalinks"`
	Import     ImportConfig     `mapstructure:"import"`
	Server     ServerConfig     `mapstructure:"server"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Features   Features         `mapstructure:"features"`
}

// SiteConfig exposes site-wide metadata to layouts and artifact generators.
type SiteConfig struct {
	Title       string         `mapstructure:"title"`
	Description string         `mapstructure:"description"`
	Author      string         `mapstructure:"author"`
	Language    string         `mapstructure:"language"`
	BaseURL     string         `mapstructure:"base_url"`
	Metadata    map[string]any `mapstructure:"metadata"`
}

// ContentConfig captures document discovery behaviour.
type ContentConfig struct {
	Dir       string `mapstructure:"dir"`
	Pattern   string `mapstructure:"pattern"`
	Recursive bool   `mapstructure:"recursive"`
}

// MarkdownConfig captures parser behaviour for body rendering.
type MarkdownConfig struct {
	Parser MarkdownParserConfig `mapstructure:"parser"`
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string        `mapstructure:"extensions"`
	Sanitize   bool            `mapstructure:"sanitize"`
	HardWraps  bool            `mapstructure:"hard_wraps"`
	SafeMode   bool            `mapstructure:"safe_mode"`
	Highlight  HighlightConfig `mapstructure:"highlight"`
}

// HighlightConfig toggles server-side code highlighting. Disabled by default:
// fence content then passes through verbatim with a language class for
// client-side highlighters.
type HighlightConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Style       string `mapstructure:"style"`
	Inline      bool   `mapstructure:"inline"`
	LineNumbers bool   `mapstructure:"line_numbers"`
}

// LayoutsConfig captures where layout templates are discovered.
type LayoutsConfig struct {
	// Dirs lists layout roots in ascending precedence.
	Dirs []string `mapstructure:"dirs"`
	// Extensions filters candidate files. Defaults to .html and .tmpl.
	Extensions []string `mapstructure:"extensions"`
}

// ThemeConfig captures configuration for theme resolution.
type ThemeConfig struct {
	Dir               string            `mapstructure:"dir"`
	Name              string            `mapstructure:"name"`
	Variant           string            `mapstructure:"variant"`
	CSSVariablePrefix string            `mapstructure:"css_variable_prefix"`
	PartialFallbacks  map[string]string `mapstructure:"partial_fallbacks"`
}

// BuildConfig captures behaviour for the static site generator.
type BuildConfig struct {
	OutputDir       string `mapstructure:"output_dir"`
	StaticDir       string `mapstructure:"static_dir"`
	DefaultLayout   string `mapstructure:"default_layout"`
	CleanBuild      bool   `mapstructure:"clean_build"`
	Incremental     bool   `mapstructure:"incremental"`
	CopyAssets      bool   `mapstructure:"copy_assets"`
	GenerateSitemap bool   `mapstructure:"generate_sitemap"`
	GenerateRobots  bool   `mapstructure:"generate_robots"`
	GenerateFeeds   bool   `mapstructure:"generate_feeds"`
	Workers         int    `mapstructure:"workers"`
}

// PermalinksConfig maps layout names to route templates used when a document
// declares no explicit permalink.
type PermalinksConfig struct {
	Routes       map[string]string `mapstructure:"routes"`
	DefaultRoute string            `mapstructure:"default_route"`
}

// ImportConfig captures defaults for the import workflow.
type ImportConfig struct {
	TargetDir     string `mapstructure:"target_dir"`
	DefaultLayout string `mapstructure:"default_layout"`
	Overwrite     bool   `mapstructure:"overwrite"`
}

// ServerConfig captures the dev server binding.
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	LiveReload bool   `mapstructure:"live_reload"`
}

// WatchConfig captures file watching behaviour for rebuild-on-change.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	// Ignore lists glob patterns matched against slash-separated relative
	// paths; matching files never trigger a rebuild.
	Ignore []string `mapstructure:"ignore"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// Features toggles engine functionality.
type Features struct {
	Generator bool `mapstructure:"generator"`
	Import    bool `mapstructure:"import"`
	Watch     bool `mapstructure:"watch"`
	Server    bool `mapstructure:"server"`
	Theming   bool `mapstructure:"theming"`
	Logger    bool `mapstructure:"logger"`
}

// DefaultConfig returns the defaults a fresh site starts from.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Language: "en",
		},
		Content: ContentConfig{
			Dir:       "content",
			Pattern:   "*.md",
			Recursive: true,
		},
		Layouts: LayoutsConfig{
			Dirs: []string{"layouts"},
		},
		Theme: ThemeConfig{
			Dir: "themes",
		},
		Build: BuildConfig{
			OutputDir:       "dist",
			StaticDir:       "static",
			DefaultLayout:   "default",
			CleanBuild:      false,
			Incremental:     true,
			CopyAssets:      true,
			GenerateSitemap: true,
			GenerateRobots:  false,
			GenerateFeeds:   false,
			Workers:         0,
		},
		Permalinks: PermalinksConfig{
			Routes: map[string]string{},
		},
		Import: ImportConfig{
			DefaultLayout: "post",
		},
		Server: ServerConfig{
			Host:       "127.0.0.1",
			Port:       8080,
			LiveReload: true,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
			Ignore:   []string{".*", "*.swp", "*~"},
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Features: Features{
			Generator: true,
			Import:    true,
			Logger:    true,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.Features.Generator {
		if strings.TrimSpace(cfg.Content.Dir) == "" {
			return ErrContentDirRequired
		}
		if strings.TrimSpace(cfg.Build.OutputDir) == "" {
			return ErrOutputDirRequired
		}
		if len(nonEmpty(cfg.Layouts.Dirs)) == 0 {
			return ErrLayoutDirRequired
		}
	}
	if cfg.Build.Workers < 0 {
		return ErrWorkersInvalid
	}
	if cfg.Features.Theming && strings.TrimSpace(cfg.Theme.Name) == "" {
		return ErrThemeNameRequired
	}
	if cfg.Features.Server {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("%w: %d", ErrServerPortInvalid, cfg.Server.Port)
		}
	}
	if cfg.Watch.Debounce < 0 {
		return ErrWatchDebounceInvalid
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			out = append(out, value)
		}
	}
	return out
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
