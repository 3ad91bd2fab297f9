package markdown

import (
	"time"

	"github.com/goliatone/go-press/internal/frontmatter"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// BuildDocument assembles an interfaces.Document from the supplied file path,
// raw content, and modification time. Extraction failures always name the
// document they came from. BodyHTML is left empty so callers can render
// lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	meta, body, err := frontmatter.Extract(source)
	if err != nil {
		return nil, frontmatter.WithSource(err, path)
	}

	return &interfaces.Document{
		FilePath:     path,
		Meta:         meta,
		Body:         body,
		LastModified: modified,
	}, nil
}
