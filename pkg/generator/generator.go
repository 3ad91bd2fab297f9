// Package generator exposes the static site generation API for go-press hosts.
// Use NewService with Config and Dependencies to build pages, assets, and
// sitemaps, or run scoped per-page builds.
package generator

import internal "github.com/goliatone/go-press/internal/generator"

type (
	Service          = internal.Service
	Config           = internal.Config
	SiteMetadata     = internal.SiteMetadata
	ThemingConfig    = internal.ThemingConfig
	PermalinkConfig  = internal.PermalinkConfig
	BuildOptions     = internal.BuildOptions
	BuildResult      = internal.BuildResult
	RenderedPage     = internal.RenderedPage
	RenderDiagnostic = internal.RenderDiagnostic
	TemplateContext  = internal.TemplateContext
	Dependencies     = internal.Dependencies
	Hooks            = internal.Hooks
	LayoutRenderer   = internal.LayoutRenderer
	AssetResolver    = internal.AssetResolver
)

var (
	ErrServiceDisabled  = internal.ErrServiceDisabled
	ErrMarkdownRequired = internal.ErrMarkdownRequired
	ErrLayoutsRequired  = internal.ErrLayoutsRequired
	ErrStorageRequired  = internal.ErrStorageRequired
)

// NewService wires a static site generator with the supplied configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	return internal.NewService(cfg, deps)
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return internal.NewDisabledService()
}
