// Package bootstrap builds a configured press engine for the CLI binaries:
// load press.yaml, apply flag overrides, and wire the pipeline services.
package bootstrap

import (
	"fmt"
	"strings"

	press "github.com/goliatone/go-press"
	sitecmd "github.com/goliatone/go-press/internal/commands/site"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// Options captures configuration shared by the press CLI bootstraps. Empty
// fields keep the value from the config file (or its default).
type Options struct {
	ConfigPath string
	ContentDir string
	OutputDir  string
	LayoutDirs []string
	BaseURL    string
	Workers    int
	LogLevel   string

	// Serve enables the dev server and watch features regardless of the
	// config file, applying the binding overrides below.
	Serve      bool
	Host       string
	Port       int
	LiveReload *bool
	Watch      *bool
}

// Module wraps the engine plus the pieces the CLI handlers need. Generator
// and Markdown alias the engine services so tests can substitute stubs.
type Module struct {
	Engine    *press.Engine
	Config    press.Config
	Generator press.GeneratorService
	Markdown  press.MarkdownService
	Logger    interfaces.Logger
	Gates     sitecmd.FeatureGates
}

// BuildModule loads configuration and constructs the engine.
func BuildModule(opts Options, engineOpts ...press.Option) (*Module, error) {
	cfg, err := press.LoadConfig(strings.TrimSpace(opts.ConfigPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg = applyOverrides(cfg, opts)

	engine, err := press.New(cfg, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise press engine: %w", err)
	}

	return &Module{
		Engine:    engine,
		Config:    cfg,
		Generator: engine.Generator(),
		Markdown:  engine.Markdown(),
		Logger:    sitecmd.SiteLogger(engine.LoggerProvider()),
		Gates: sitecmd.FeatureGates{
			GeneratorEnabled: func() bool { return cfg.Features.Generator },
			ImportEnabled:    func() bool { return cfg.Features.Import },
		},
	}, nil
}

func applyOverrides(cfg press.Config, opts Options) press.Config {
	if dir := strings.TrimSpace(opts.ContentDir); dir != "" {
		cfg.Content.Dir = dir
	}
	if dir := strings.TrimSpace(opts.OutputDir); dir != "" {
		cfg.Build.OutputDir = dir
	}
	if dirs := nonEmpty(opts.LayoutDirs); len(dirs) > 0 {
		cfg.Layouts.Dirs = dirs
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		cfg.Site.BaseURL = baseURL
	}
	if opts.Workers > 0 {
		cfg.Build.Workers = opts.Workers
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if opts.Serve {
		cfg.Features.Server = true
		cfg.Features.Watch = true
		if host := strings.TrimSpace(opts.Host); host != "" {
			cfg.Server.Host = host
		}
		if opts.Port > 0 {
			cfg.Server.Port = opts.Port
		}
		if opts.LiveReload != nil {
			cfg.Server.LiveReload = *opts.LiveReload
		}
		if opts.Watch != nil {
			cfg.Features.Watch = *opts.Watch
		}
	}
	return cfg
}

// SplitList parses a comma separated flag value into a trimmed slice.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	return nonEmpty(parts)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
