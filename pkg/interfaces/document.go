package interfaces

import "time"

// Well-known front matter keys. The post content type requires all four;
// other content types may require a subset.
const (
	KeyLayout    = "layout"
	KeyPermalink = "permalink"
	KeyTitle     = "title"
	KeyPath      = "path"
)

// Field is a single front matter entry. Values remain exactly as written in
// the source document: plain strings, no type coercion.
type Field struct {
	Key   string
	Value string
}

// Metadata holds the front matter extracted from a document. Fields keeps
// every pair in document order, duplicates included, so callers that need the
// original shape (editors, round-trip writers) can reproduce it; keyed lookup
// resolves duplicates in favour of the last occurrence.
type Metadata struct {
	// Fields preserves every key/value pair in document order.
	Fields []Field
	// Raw is the front matter block exactly as it appeared in the source,
	// delimiter lines included. Concatenating Raw with the document body
	// reproduces the original file byte for byte.
	Raw string
	// Present reports whether the document opened with a front matter block.
	// A document without one yields an empty Metadata with Present false.
	Present bool
}

// Lookup returns the value for key and whether the key exists. When the key
// appears more than once the last occurrence wins.
func (m Metadata) Lookup(key string) (string, bool) {
	for i := len(m.Fields) - 1; i >= 0; i-- {
		if m.Fields[i].Key == key {
			return m.Fields[i].Value, true
		}
	}
	return "", false
}

// Get returns the value for key, or the empty string when absent.
func (m Metadata) Get(key string) string {
	value, _ := m.Lookup(key)
	return value
}

// Has reports whether key is present with a non-empty value.
func (m Metadata) Has(key string) bool {
	value, ok := m.Lookup(key)
	return ok && value != ""
}

// Keys returns the distinct keys in first-appearance order.
func (m Metadata) Keys() []string {
	seen := make(map[string]struct{}, len(m.Fields))
	keys := make([]string, 0, len(m.Fields))
	for _, field := range m.Fields {
		if _, ok := seen[field.Key]; ok {
			continue
		}
		seen[field.Key] = struct{}{}
		keys = append(keys, field.Key)
	}
	return keys
}

// Len returns the number of stored pairs, duplicates included.
func (m Metadata) Len() int {
	return len(m.Fields)
}

// Map flattens the fields into a lookup map with last-occurrence-wins
// semantics. Template contexts use this view; ordered consumers should walk
// Fields instead.
func (m Metadata) Map() map[string]string {
	out := make(map[string]string, len(m.Fields))
	for _, field := range m.Fields {
		out[field.Key] = field.Value
	}
	return out
}

// Layout returns the layout key used to select a page template.
func (m Metadata) Layout() string { return m.Get(KeyLayout) }

// Permalink returns the published URL declared by the document, if any.
func (m Metadata) Permalink() string { return m.Get(KeyPermalink) }

// Title returns the document title.
func (m Metadata) Title() string { return m.Get(KeyTitle) }

// Path returns the category path declared by the document, if any.
func (m Metadata) Path() string { return m.Get(KeyPath) }

// Document represents a source file with extracted metadata and content. The
// struct is shared between the interfaces package and internal implementations
// so consumers can depend on a stable contract. Documents are value carriers:
// the pipeline never mutates a loaded document in place, every build
// regenerates derived artifacts from the source bytes.
type Document struct {
	FilePath     string
	Meta         Metadata
	Body         []byte
	BodyHTML     []byte
	// Warnings holds the recoverable diagnostics raised while producing
	// BodyHTML, each stamped with the document source. Empty until the body
	// has been rendered.
	Warnings     []RenderWarning
	LastModified time.Time
	// Checksum stores a digest of the original file content (typically SHA-256)
	// so incremental builds can detect changes without re-rendering unchanged files.
	Checksum []byte
}

// Source returns the identifier used in diagnostics for this document. It is
// the file path when known, or "<inline>" for documents built from raw bytes.
func (d *Document) Source() string {
	if d == nil || d.FilePath == "" {
		return "<inline>"
	}
	return d.FilePath
}

// Render warning codes. Warnings surface recoverable conditions that do not
// abort rendering.
const (
	// WarnUnclosedCodeFence marks a fenced code block that was opened but
	// never closed; the remainder of the document renders as fence content.
	WarnUnclosedCodeFence = "unclosed_code_fence"
)

// RenderWarning is a structured, non-fatal diagnostic raised while rendering
// a document body.
type RenderWarning struct {
	Code    string
	Source  string
	Line    int
	Message string
}
