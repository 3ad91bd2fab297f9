package markdown

import "errors"

var (
	// ErrNilDocument marks render calls that received no document.
	ErrNilDocument = errors.New("markdown service: document is nil")
	// ErrImporterRequired marks import calls on a service wired without an importer.
	ErrImporterRequired = errors.New("markdown service: importer is required")
	// ErrStorageRequired marks importer construction without a storage provider.
	ErrStorageRequired = errors.New("markdown importer: storage provider is required")
	// ErrTargetRequired marks import runs with no target directory to write to.
	ErrTargetRequired = errors.New("markdown importer: target directory is required")
)
