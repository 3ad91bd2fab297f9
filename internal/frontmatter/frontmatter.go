// Package frontmatter extracts the metadata block that prefixes press
// documents. The block is line oriented: a marker line opens it, one
// "key: value" pair per line, a marker line closes it. Values stay plain
// strings in document order; interpretation belongs to later pipeline stages.
package frontmatter

import (
	"bytes"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// Marker is the delimiter line that opens and closes a front matter block.
const Marker = "---"

// Block is the extracted front matter of a document.
type Block = interfaces.Metadata

// Field is a single ordered key/value pair.
type Field = interfaces.Field

const (
	reasonUnclosed = "closing marker never found"
	reasonNotPair  = "expected key: value pair"
)

// Extract splits source into its front matter block and body.
//
// A document that does not open with a marker line has no front matter: the
// returned Block is empty and the body is the input unchanged. A document
// that opens a block must close it; otherwise Extract reports a
// MalformedError carrying the line where the scan stalled rather than
// guessing at a truncation point.
//
// The returned Block retains the raw block text byte for byte, so
// Join(block, body) reproduces the original input exactly.
func Extract(source []byte) (Block, []byte, error) {
	var meta Block

	first, rest, _ := cutLine(source)
	if !isMarker(first) {
		return meta, source, nil
	}

	lineNo := 1
	var inner []innerLine
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		lineNo++
		if isMarker(line) {
			fields, err := parseFields(inner)
			if err != nil {
				return Block{}, nil, err
			}
			end := len(source) - len(next)
			meta.Present = true
			meta.Raw = string(source[:end])
			meta.Fields = fields
			return meta, next, nil
		}
		inner = append(inner, innerLine{text: line, number: lineNo})
		rest = next
	}

	return Block{}, nil, &MalformedError{Line: lineNo, Reason: reasonUnclosed}
}

// Join reassembles a document from its extracted block and body. For any
// document split by Extract the result is the original input.
func Join(meta Block, body []byte) []byte {
	out := make([]byte, 0, len(meta.Raw)+len(body))
	out = append(out, meta.Raw...)
	return append(out, body...)
}

// Compose builds a canonical block from ordered fields: marker line, one
// "key: value" line per field, marker line. Importers use it to rewrite
// foreign metadata into the press layout.
func Compose(fields ...Field) Block {
	builder := strings.Builder{}
	builder.WriteString(Marker)
	builder.WriteByte('\n')
	for _, field := range fields {
		builder.WriteString(field.Key)
		builder.WriteString(": ")
		builder.WriteString(field.Value)
		builder.WriteByte('\n')
	}
	builder.WriteString(Marker)
	builder.WriteByte('\n')

	return Block{
		Fields:  append([]Field(nil), fields...),
		Raw:     builder.String(),
		Present: true,
	}
}

// Require checks that every named key is present with a non-empty value,
// reporting all absences at once.
func Require(meta Block, keys ...string) error {
	var missing []string
	for _, key := range keys {
		if !meta.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}
	return nil
}

type innerLine struct {
	text   []byte
	number int
}

// parseFields turns block lines into ordered pairs. Blank lines and comment
// lines are skipped; anything else must split on a colon.
func parseFields(lines []innerLine) ([]Field, error) {
	var fields []Field
	for _, line := range lines {
		trimmed := strings.TrimSpace(string(line.text))
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(trimmed, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &MalformedError{Line: line.number, Reason: reasonNotPair}
		}
		fields = append(fields, Field{
			Key:   key,
			Value: strings.TrimSpace(value),
		})
	}
	return fields, nil
}

// cutLine splits off the first line of source, excluding the terminator from
// the returned line while keeping offsets exact for raw retention.
func cutLine(source []byte) (line, rest []byte, terminated bool) {
	idx := bytes.IndexByte(source, '\n')
	if idx < 0 {
		return source, nil, false
	}
	return source[:idx], source[idx+1:], true
}

// isMarker reports whether line is a delimiter. Trailing whitespace is
// tolerated; leading whitespace makes the line ordinary content.
func isMarker(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == Marker
}
