package markdown

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// ScanFences inspects Markdown source for fenced code blocks and reports a
// warning when a fence opens and never closes. Rendering proceeds either way;
// the remainder of the document becomes fence content, which matches how the
// renderer treats the input. Only the body should be scanned, front matter
// markers would otherwise be mistaken for content.
func ScanFences(source []byte) []interfaces.RenderWarning {
	var warnings []interfaces.RenderWarning

	var openChar byte
	openLen := 0
	openLine := 0
	open := false

	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		marker, length := fenceMarker(scanner.Text())
		if marker == 0 {
			continue
		}
		if !open {
			open = true
			openChar = marker
			openLen = length
			openLine = line
			continue
		}
		// Closing fences must match the opening character and be at least as
		// long; anything else is fence content.
		if marker == openChar && length >= openLen && fenceIsBare(scanner.Text()) {
			open = false
		}
	}

	if open {
		warnings = append(warnings, interfaces.RenderWarning{
			Code: interfaces.WarnUnclosedCodeFence,
			Line: openLine,
			Message: fmt.Sprintf(
				"code fence opened at line %d was never closed; remaining content rendered inside the fence",
				openLine,
			),
		})
	}

	return warnings
}

// fenceMarker reports the fence character and run length when the line opens
// or closes a fence, allowing up to three leading spaces per CommonMark.
func fenceMarker(line string) (byte, int) {
	trimmed := line
	for i := 0; i < 3 && strings.HasPrefix(trimmed, " "); i++ {
		trimmed = trimmed[1:]
	}
	if trimmed == "" {
		return 0, 0
	}
	marker := trimmed[0]
	if marker != '`' && marker != '~' {
		return 0, 0
	}
	length := 0
	for length < len(trimmed) && trimmed[length] == marker {
		length++
	}
	if length < 3 {
		return 0, 0
	}
	// Info strings on backtick fences cannot contain backticks; such lines
	// are content, not fences.
	if marker == '`' && strings.ContainsRune(trimmed[length:], '`') {
		return 0, 0
	}
	return marker, length
}

// fenceIsBare reports whether the line holds nothing besides the fence run,
// which is what a closing fence requires.
func fenceIsBare(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	marker := trimmed[0]
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != marker {
			return false
		}
	}
	return true
}
