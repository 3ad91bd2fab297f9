package markdown

import (
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// defaultHighlightStyle keeps highlighted output readable on light themes.
const defaultHighlightStyle = "github"

// newHighlightExtension builds the chroma-backed goldmark extension used when
// server-side highlighting is enabled. The default pipeline never takes this
// path: fence content stays verbatim, annotated with a language class, and
// highlighting happens client side.
func newHighlightExtension(opts interfaces.HighlightOptions) goldmark.Extender {
	name := strings.TrimSpace(opts.Style)
	if name == "" {
		name = defaultHighlightStyle
	}

	format := []chromahtml.Option{}
	if !opts.Inline {
		format = append(format, chromahtml.WithClasses(true))
	}
	if opts.LineNumbers {
		format = append(format, chromahtml.WithLineNumbers(true))
	}

	// styles.Get falls back to a plain style for unknown names, so a typo in
	// configuration degrades output rather than failing the build.
	return highlighting.NewHighlighting(
		highlighting.WithCustomStyle(styles.Get(name)),
		highlighting.WithFormatOptions(format...),
	)
}
