package interfaces

import "context"

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Implementations should support reusable parser instances and extension
// toggles so hosts can tailor rendering without rewriting the core service.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
	// Highlight enables server-side syntax highlighting of fenced code
	// blocks. When nil (the default) fence content passes through verbatim,
	// annotated with a language class for client-side highlighters.
	Highlight *HighlightOptions
}

// HighlightOptions configures server-side code highlighting.
type HighlightOptions struct {
	// Style names a chroma style (e.g. "github", "monokai").
	Style string
	// Inline emits style attributes instead of CSS classes.
	Inline bool
	// LineNumbers prefixes each code line with its number.
	LineNumbers bool
}

// MarkdownService exposes the high-level file workflows for the press
// pipeline: load Markdown documents from disk, convert them into HTML, and
// normalise foreign document trees into the canonical content layout.
type MarkdownService interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	// ListDocuments discovers matching source paths without parsing them, so
	// callers that need per-file error isolation can load one path at a time.
	ListDocuments(ctx context.Context, dir string, opts LoadOptions) ([]string, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, []RenderWarning, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, []RenderWarning, error)
	ImportFile(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error)
	ImportDirectory(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error)
}

// LoadOptions fine-tunes how documents are discovered and parsed from disk.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	Parser    ParseOptions
	// SkipRender leaves Document.BodyHTML empty. Callers that render through
	// RenderDocument later (the generator does, to collect warnings) avoid
	// converting every body twice.
	SkipRender bool
}

// ImportOptions controls how foreign Markdown trees (full YAML front matter,
// arbitrary layouts) are normalised into canonical press documents.
type ImportOptions struct {
	// TargetDir receives the normalised documents. Defaults to the content dir.
	TargetDir string
	// DefaultLayout fills the layout key when the source declares none.
	DefaultLayout string
	// Overwrite replaces documents that already exist in the target.
	Overwrite bool
	DryRun    bool
}

// ImportResult reports the outcome of an import run, exposing paths and
// per-file errors so callers can audit behaviour or trigger follow-ups.
type ImportResult struct {
	Imported []string
	Skipped  []string
	Errors   []error
}
