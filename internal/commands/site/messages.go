// Package sitecmd hosts the command messages and handlers driving site
// builds, imports, and cleanups. The CLI binaries and host applications
// dispatch these messages instead of reaching into the services directly so
// validation, logging, and error categorisation stay uniform.
package sitecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-press/internal/generator"
	"github.com/goliatone/go-press/pkg/interfaces"
)

const (
	buildSiteMessageType       = "press.site.build"
	importDirectoryMessageType = "press.site.import_directory"
	cleanSiteMessageType       = "press.site.clean"
)

// BuildCallback receives build results produced by generator operations. The
// callback is optional and invoked synchronously from the handler when a
// BuildResult is available.
type BuildCallback func(BuildEnvelope)

// BuildEnvelope captures the outcome of a build command execution.
type BuildEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// ImportCallback receives the import result once a run completes.
type ImportCallback func(ImportEnvelope)

// ImportEnvelope captures the outcome of an import command execution.
type ImportEnvelope struct {
	Result   *interfaces.ImportResult
	Metadata map[string]any
}

// BuildSiteCommand executes a generator build.
type BuildSiteCommand struct {
	// Paths restricts the build to the named documents, relative to the
	// content root. Empty builds the whole site.
	Paths []string `json:"paths,omitempty"`
	// Force disables incremental reuse for this run.
	Force bool `json:"force,omitempty"`
	// DryRun renders without writing artifacts.
	DryRun bool `json:"dry_run,omitempty"`
	// AssetsOnly copies static and theme assets without rendering pages.
	AssetsOnly     bool          `json:"assets_only,omitempty"`
	ResultCallback BuildCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures path filters are well-formed.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	for _, path := range m.Paths {
		if strings.TrimSpace(path) == "" {
			errs["paths"] = validation.NewError("press.site.build.path_invalid", "paths must not contain empty values")
			break
		}
	}
	if m.AssetsOnly && len(m.Paths) > 0 {
		errs["assets_only"] = validation.NewError("press.site.build.assets_only_scoped", "assets_only cannot be combined with path filters")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ImportDirectoryCommand normalises a foreign Markdown tree into the
// canonical content layout.
type ImportDirectoryCommand struct {
	// Directory selects the filesystem path to import documents from.
	Directory string `json:"directory"`
	// TargetDir receives the normalised documents. Defaults to the content root.
	TargetDir string `json:"target_dir,omitempty"`
	// DefaultLayout fills the layout key when a source declares none.
	DefaultLayout string `json:"default_layout,omitempty"`
	// Overwrite replaces documents that already exist in the target.
	Overwrite bool `json:"overwrite,omitempty"`
	// DryRun previews the normalisation without writing documents.
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ImportCallback `json:"-"`
}

// Type implements command.Message.
func (ImportDirectoryCommand) Type() string { return importDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd ImportDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("press.site.import_directory.directory_required", "directory is required")
			}
			return nil
		})),
	)
}

// CleanSiteCommand clears generator artifacts from the configured storage
// backend.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	GeneratorEnabled func() bool
	ImportEnabled    func() bool
}

func (g FeatureGates) generatorEnabled() bool {
	if g.GeneratorEnabled == nil {
		return false
	}
	return g.GeneratorEnabled()
}

func (g FeatureGates) importEnabled() bool {
	if g.ImportEnabled == nil {
		return false
	}
	return g.ImportEnabled()
}
