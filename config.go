package press

import "github.com/goliatone/go-press/internal/runtimeconfig"

var (
	ErrContentDirRequired      = runtimeconfig.ErrContentDirRequired
	ErrOutputDirRequired       = runtimeconfig.ErrOutputDirRequired
	ErrLayoutDirRequired       = runtimeconfig.ErrLayoutDirRequired
	ErrThemeNameRequired       = runtimeconfig.ErrThemeNameRequired
	ErrWorkersInvalid          = runtimeconfig.ErrWorkersInvalid
	ErrServerPortInvalid       = runtimeconfig.ErrServerPortInvalid
	ErrWatchDebounceInvalid    = runtimeconfig.ErrWatchDebounceInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	SiteConfig           = runtimeconfig.SiteConfig
	ContentConfig        = runtimeconfig.ContentConfig
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	HighlightConfig      = runtimeconfig.HighlightConfig
	LayoutsConfig        = runtimeconfig.LayoutsConfig
	ThemeConfig          = runtimeconfig.ThemeConfig
	BuildConfig          = runtimeconfig.BuildConfig
	PermalinksConfig     = runtimeconfig.PermalinksConfig
	ImportConfig         = runtimeconfig.ImportConfig
	ServerConfig         = runtimeconfig.ServerConfig
	WatchConfig          = runtimeconfig.WatchConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
	Features             = runtimeconfig.Features
)

// DefaultConfig returns the defaults a fresh site starts from.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a press.yaml configuration file, applies PRESS_ environment
// overrides, and validates the result. An empty path searches the working
// directory.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
