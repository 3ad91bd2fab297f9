package storage

import (
	"context"
	"io"
)

// Provider encapsulates artifact storage for press outputs. The generator and
// importer write every file through this contract so hosts can redirect
// builds to memory, object storage, or a staging area without touching the
// pipeline.
type Provider interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req WriteRequest) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// Remove deletes the file or directory tree at path. Removing a path
	// that does not exist is not an error.
	Remove(ctx context.Context, path string) error
}

// Category tags a write with the artifact kind it carries, for providers
// that route or audit by type.
type Category string

const (
	CategoryPage     Category = "page"
	CategoryAsset    Category = "asset"
	CategorySitemap  Category = "sitemap"
	CategoryRobots   Category = "robots"
	CategoryFeed     Category = "feed"
	CategoryManifest Category = "manifest"
	CategoryDocument Category = "document"
)

// WriteRequest describes a single artifact write.
type WriteRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    Category
	ContentType string
	Checksum    string
	Metadata    map[string]string
}
