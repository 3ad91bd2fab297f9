package frontmatter

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed marks a front matter block that opened but could not be
	// parsed to completion. Inspect MalformedError for the stall position.
	ErrMalformed = errors.New("frontmatter: malformed front matter block")
	// ErrMissingRequiredKeys marks a block that parsed cleanly but lacks keys
	// the content type requires.
	ErrMissingRequiredKeys = errors.New("frontmatter: missing required keys")
)

// MalformedError reports where extraction stalled: either the closing marker
// was never found, or a line inside the block was not a key: value pair.
// Line is 1-based relative to the start of the document.
type MalformedError struct {
	Source string
	Line   int
	Reason string
}

func (e *MalformedError) Error() string {
	if e == nil {
		return ErrMalformed.Error()
	}
	builder := strings.Builder{}
	builder.WriteString(ErrMalformed.Error())
	if source := strings.TrimSpace(e.Source); source != "" {
		fmt.Fprintf(&builder, ": source=%s", source)
	}
	if e.Line > 0 {
		fmt.Fprintf(&builder, ": line=%d", e.Line)
	}
	if reason := strings.TrimSpace(e.Reason); reason != "" {
		fmt.Fprintf(&builder, ": %s", reason)
	}
	return builder.String()
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// MissingKeysError lists the required keys absent from a block. A key counts
// as missing when it is not present or its value is empty.
type MissingKeysError struct {
	Source string
	Keys   []string
}

func (e *MissingKeysError) Error() string {
	if e == nil {
		return ErrMissingRequiredKeys.Error()
	}
	builder := strings.Builder{}
	builder.WriteString(ErrMissingRequiredKeys.Error())
	if source := strings.TrimSpace(e.Source); source != "" {
		fmt.Fprintf(&builder, ": source=%s", source)
	}
	if len(e.Keys) > 0 {
		fmt.Fprintf(&builder, ": keys=%s", strings.Join(e.Keys, ","))
	}
	return builder.String()
}

func (e *MissingKeysError) Unwrap() error {
	return ErrMissingRequiredKeys
}

// WithSource returns err with the document source identifier attached when it
// is a front matter error. Other errors pass through unchanged. Loaders call
// this so every extraction failure names the file it came from.
func WithSource(err error, source string) error {
	if err == nil {
		return nil
	}

	var malformed *MalformedError
	if errors.As(err, &malformed) {
		clone := *malformed
		clone.Source = source
		return &clone
	}

	var missing *MissingKeysError
	if errors.As(err, &missing) {
		clone := *missing
		clone.Source = source
		return &clone
	}

	return err
}
