package frontmatter

import (
	"errors"
	"testing"

	"github.com/goliatone/go-press/pkg/interfaces"
)

const samplePost = `---
layout: post
permalink: /blog/first-post/
title: First Post
path: blog
---
# First Post

Body text.
`

func TestExtractSplitsBlockAndBody(t *testing.T) {
	meta, body, err := Extract([]byte(samplePost))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !meta.Present {
		t.Fatal("expected front matter to be detected")
	}
	if meta.Len() != 4 {
		t.Fatalf("expected 4 fields, got %d: %#v", meta.Len(), meta.Fields)
	}

	wantOrder := []string{"layout", "permalink", "title", "path"}
	for i, key := range wantOrder {
		if meta.Fields[i].Key != key {
			t.Fatalf("field %d: expected key %q, got %q", i, key, meta.Fields[i].Key)
		}
	}

	if got := meta.Get("title"); got != "First Post" {
		t.Fatalf("expected title %q, got %q", "First Post", got)
	}
	if got := meta.Layout(); got != "post" {
		t.Fatalf("expected layout post, got %q", got)
	}
	if string(body) != "# First Post\n\nBody text.\n" {
		t.Fatalf("unexpected body: %q", string(body))
	}
}

func TestExtractRetainsRawBlockByteForByte(t *testing.T) {
	inputs := []string{
		samplePost,
		"---\ntitle: Bare\n---\nbody",
		"---\r\ntitle: CRLF\r\n---\r\nbody\r\n",
		"---\ntitle: trailing marker space\n---   \nbody\n",
		"---\n---\nonly markers\n",
		"---\ntitle: no final newline\n---",
	}

	for _, input := range inputs {
		meta, body, err := Extract([]byte(input))
		if err != nil {
			t.Fatalf("Extract(%q): %v", input, err)
		}
		if got := string(Join(meta, body)); got != input {
			t.Fatalf("round trip mismatch\nwant: %q\ngot:  %q", input, got)
		}
	}
}

func TestExtractWithoutMarkerReturnsBodyUnchanged(t *testing.T) {
	inputs := []string{
		"# Just a heading\n\nNo metadata here.\n",
		"",
		"text --- with a marker mid line\n",
		" ---\nindented marker is content\n",
	}

	for _, input := range inputs {
		meta, body, err := Extract([]byte(input))
		if err != nil {
			t.Fatalf("Extract(%q): %v", input, err)
		}
		if meta.Present {
			t.Fatalf("expected no front matter for %q", input)
		}
		if meta.Len() != 0 || meta.Raw != "" {
			t.Fatalf("expected empty metadata for %q, got %#v", input, meta)
		}
		if string(body) != input {
			t.Fatalf("expected body to equal input %q, got %q", input, string(body))
		}
	}
}

func TestExtractUnclosedBlockFails(t *testing.T) {
	input := "---\nlayout: post\ntitle: Missing Close\n\nThis never closes.\n"

	_, _, err := Extract([]byte(input))
	if err == nil {
		t.Fatal("expected error for unclosed block")
	}
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %T", err)
	}
	if malformed.Line != 5 {
		t.Fatalf("expected stall at line 5, got %d", malformed.Line)
	}
}

func TestExtractRejectsNonPairLines(t *testing.T) {
	input := "---\nlayout: post\nnot a pair\n---\nbody\n"

	_, _, err := Extract([]byte(input))
	if err == nil {
		t.Fatal("expected error for non pair line")
	}

	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %T", err)
	}
	if malformed.Line != 3 {
		t.Fatalf("expected stall at line 3, got %d", malformed.Line)
	}
}

func TestExtractSkipsBlankAndCommentLines(t *testing.T) {
	input := "---\nlayout: post\n\n# publishing metadata\ntitle: Spaced Out\n---\nbody\n"

	meta, _, err := Extract([]byte(input))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if meta.Len() != 2 {
		t.Fatalf("expected 2 fields, got %#v", meta.Fields)
	}
	if got := string(Join(meta, []byte("body\n"))); got != input {
		t.Fatalf("expected blank and comment lines preserved in raw block\nwant: %q\ngot:  %q", input, got)
	}
}

func TestExtractDuplicateKeysLastWins(t *testing.T) {
	input := "---\ntitle: First\ntitle: Second\n---\nbody\n"

	meta, _, err := Extract([]byte(input))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := meta.Get("title"); got != "Second" {
		t.Fatalf("expected last occurrence to win, got %q", got)
	}
	if meta.Len() != 2 {
		t.Fatalf("expected both occurrences preserved in order, got %#v", meta.Fields)
	}
	if keys := meta.Keys(); len(keys) != 1 || keys[0] != "title" {
		t.Fatalf("expected distinct keys [title], got %#v", keys)
	}
}

func TestExtractValueKeepsColons(t *testing.T) {
	input := "---\ntitle: Go: The Language\npermalink: https://example.com/post/\n---\n"

	meta, _, err := Extract([]byte(input))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := meta.Get("title"); got != "Go: The Language" {
		t.Fatalf("expected colon preserved in value, got %q", got)
	}
	if got := meta.Get("permalink"); got != "https://example.com/post/" {
		t.Fatalf("expected URL value intact, got %q", got)
	}
}

func TestExtractKeepsValuesAsPlainStrings(t *testing.T) {
	input := "---\ndraft: true\nweight: 10\ndate: 2024-03-14\n---\n"

	meta, _, err := Extract([]byte(input))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := meta.Get("draft"); got != "true" {
		t.Fatalf("expected string %q, got %q", "true", got)
	}
	if got := meta.Get("weight"); got != "10" {
		t.Fatalf("expected string %q, got %q", "10", got)
	}
	if got := meta.Get("date"); got != "2024-03-14" {
		t.Fatalf("expected string %q, got %q", "2024-03-14", got)
	}
}

func TestComposeRoundTripsThroughExtract(t *testing.T) {
	composed := Compose(
		Field{Key: "layout", Value: "post"},
		Field{Key: "title", Value: "Composed"},
	)

	meta, body, err := Extract(Join(composed, []byte("body\n")))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if meta.Len() != 2 || meta.Get("layout") != "post" || meta.Get("title") != "Composed" {
		t.Fatalf("unexpected fields after round trip: %#v", meta.Fields)
	}
	if string(body) != "body\n" {
		t.Fatalf("unexpected body: %q", string(body))
	}
	if meta.Raw != composed.Raw {
		t.Fatalf("raw mismatch\nwant: %q\ngot:  %q", composed.Raw, meta.Raw)
	}
}

func TestRequireReportsAllMissingKeys(t *testing.T) {
	meta, _, err := Extract([]byte("---\ntitle: Partial\nlayout:\n---\n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	err = Require(meta,
		interfaces.KeyLayout,
		interfaces.KeyPermalink,
		interfaces.KeyTitle,
		interfaces.KeyPath,
	)
	if err == nil {
		t.Fatal("expected missing key error")
	}
	if !errors.Is(err, ErrMissingRequiredKeys) {
		t.Fatalf("expected ErrMissingRequiredKeys, got %v", err)
	}

	var missing *MissingKeysError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingKeysError, got %T", err)
	}
	want := []string{"layout", "permalink", "path"}
	if len(missing.Keys) != len(want) {
		t.Fatalf("expected missing keys %v, got %v", want, missing.Keys)
	}
	for i, key := range want {
		if missing.Keys[i] != key {
			t.Fatalf("missing key %d: expected %q, got %q", i, key, missing.Keys[i])
		}
	}
}

func TestWithSourceAttachesDocumentIdentifier(t *testing.T) {
	_, _, err := Extract([]byte("---\nnever closed\n"))
	if err == nil {
		t.Fatal("expected error")
	}

	err = WithSource(err, "content/posts/broken.md")

	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %T", err)
	}
	if malformed.Source != "content/posts/broken.md" {
		t.Fatalf("expected source to be attached, got %q", malformed.Source)
	}

	plain := errors.New("unrelated")
	if got := WithSource(plain, "x.md"); got != plain {
		t.Fatalf("expected unrelated errors to pass through, got %v", got)
	}
}
