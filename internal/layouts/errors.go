package layouts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLayoutNotFound indicates a render referenced a layout that is not
	// registered. Builds fail rather than substituting another layout.
	ErrLayoutNotFound = errors.New("layouts: layout not found")
	// ErrNoLayouts indicates the registry found no layout files to load.
	ErrNoLayouts = errors.New("layouts: no layout files found")
)

// LayoutNotFoundError reports the missing layout together with the document
// that requested it.
type LayoutNotFoundError struct {
	// Layout is the requested layout name.
	Layout string
	// Source identifies the document whose front matter named the layout.
	Source string
	// Known lists the registered layout names.
	Known []string
}

func (e *LayoutNotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "layouts: layout %q not found", e.Layout)
	if e.Source != "" {
		fmt.Fprintf(&sb, " (requested by %s)", e.Source)
	}
	if len(e.Known) > 0 {
		fmt.Fprintf(&sb, "; known layouts: %s", strings.Join(e.Known, ", "))
	}
	return sb.String()
}

func (e *LayoutNotFoundError) Unwrap() error {
	return ErrLayoutNotFound
}
