package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-press/internal/frontmatter"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/pkg/storage"
)

func TestImporterImportFile_NormalisesFrontMatter(t *testing.T) {
	store := newMemoryStorage()
	imp := newTestImporter(t, store)

	result, err := imp.ImportFile(context.Background(), "testdata/import/2015-03-10-angular-intro.md", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if len(result.Imported) != 1 || len(result.Skipped) != 0 {
		t.Fatalf("expected one imported document, got %#v", result)
	}
	target := result.Imported[0]
	if target != "content/angular-intro.md" {
		t.Fatalf("expected date prefix stripped from target, got %q", target)
	}

	written, ok := store.files[target]
	if !ok {
		t.Fatalf("document not written, files: %#v", store.files)
	}

	meta, body, err := frontmatter.Extract(written)
	if err != nil {
		t.Fatalf("Extract on imported document: %v", err)
	}

	if got := meta.Layout(); got != "post" {
		t.Fatalf("expected default layout post, got %q", got)
	}
	if got := meta.Title(); got != "Intro to Angular" {
		t.Fatalf("expected title from source metadata, got %q", got)
	}
	if got := meta.Permalink(); got != "/intro-to-angular/" {
		t.Fatalf("expected permalink derived from title, got %q", got)
	}
	if got := meta.Get("date"); got != "2015-03-10" {
		t.Fatalf("expected date recovered from file name, got %q", got)
	}
	if got := meta.Get("tags"); got != "javascript, angular" {
		t.Fatalf("expected list flattened to comma string, got %q", got)
	}
	if got := meta.Get("author.name"); got != "Jane Doe" {
		t.Fatalf("expected nested map flattened to dotted key, got %q", got)
	}
	if !strings.Contains(string(body), "Body text here.") {
		t.Fatalf("expected body preserved, got %q", string(body))
	}

	keys := meta.Keys()
	if len(keys) < 4 || keys[0] != interfaces.KeyLayout || keys[1] != interfaces.KeyPermalink || keys[2] != interfaces.KeyTitle || keys[3] != interfaces.KeyPath {
		t.Fatalf("expected canonical key order, got %v", keys)
	}
}

func TestImporterImportFile_SkipsExisting(t *testing.T) {
	store := newMemoryStorage()
	store.files["content/angular-intro.md"] = []byte("already there")
	imp := newTestImporter(t, store)

	result, err := imp.ImportFile(context.Background(), "testdata/import/2015-03-10-angular-intro.md", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if len(result.Imported) != 0 || len(result.Skipped) != 1 {
		t.Fatalf("expected existing document skipped, got %#v", result)
	}
	if string(store.files["content/angular-intro.md"]) != "already there" {
		t.Fatalf("existing document must not be overwritten")
	}
}

func TestImporterImportFile_OverwriteReplacesExisting(t *testing.T) {
	store := newMemoryStorage()
	store.files["content/angular-intro.md"] = []byte("already there")
	imp := newTestImporter(t, store)

	result, err := imp.ImportFile(context.Background(), "testdata/import/2015-03-10-angular-intro.md", interfaces.ImportOptions{
		Overwrite: true,
	})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if len(result.Imported) != 1 {
		t.Fatalf("expected overwrite to import, got %#v", result)
	}
	if string(store.files["content/angular-intro.md"]) == "already there" {
		t.Fatalf("expected document to be replaced")
	}
}

func TestImporterImportFile_DryRun(t *testing.T) {
	store := newMemoryStorage()
	imp := newTestImporter(t, store)

	result, err := imp.ImportFile(context.Background(), "testdata/import/plain.md", interfaces.ImportOptions{
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if len(result.Skipped) != 1 || len(result.Imported) != 0 {
		t.Fatalf("expected dry run to skip, got %#v", result)
	}
	if len(store.files) != 0 {
		t.Fatalf("dry run must not write, files: %#v", store.files)
	}
}

func TestImporterImportDirectory(t *testing.T) {
	store := newMemoryStorage()
	imp := newTestImporter(t, store)

	result, err := imp.ImportDirectory(context.Background(), "testdata/import", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}

	if len(result.Imported) != 2 {
		t.Fatalf("expected both fixtures imported, got %#v", result)
	}

	plain, ok := store.files["content/plain.md"]
	if !ok {
		t.Fatalf("plain document not written, files: %#v", store.files)
	}

	meta, _, err := frontmatter.Extract(plain)
	if err != nil {
		t.Fatalf("Extract on plain document: %v", err)
	}
	if got := meta.Title(); got != "Plain" {
		t.Fatalf("expected title derived from file name, got %q", got)
	}
	if got := meta.Permalink(); got != "/plain/" {
		t.Fatalf("expected permalink derived from slug, got %q", got)
	}
	if got := meta.Path(); got != "posts" {
		t.Fatalf("expected default path posts, got %q", got)
	}
	if err := frontmatter.Require(meta, interfaces.KeyLayout, interfaces.KeyPermalink, interfaces.KeyTitle, interfaces.KeyPath); err != nil {
		t.Fatalf("imported document missing required keys: %v", err)
	}
}

func TestImporterImportDirectory_IsolatesFailures(t *testing.T) {
	store := newMemoryStorage()
	store.failPaths["content/angular-intro.md"] = true
	imp := newTestImporter(t, store)

	result, err := imp.ImportDirectory(context.Background(), "testdata/import", interfaces.ImportOptions{})
	if err == nil {
		t.Fatalf("expected first write failure surfaced")
	}

	if len(result.Errors) != 1 {
		t.Fatalf("expected one accumulated error, got %#v", result.Errors)
	}
	if len(result.Imported) != 1 || result.Imported[0] != "content/plain.md" {
		t.Fatalf("expected remaining document still imported, got %#v", result)
	}
}

func TestImporterRequiresTarget(t *testing.T) {
	imp, err := NewImporter(ImporterConfig{Storage: newMemoryStorage()})
	if err != nil {
		t.Fatalf("NewImporter: %v", err)
	}

	_, err = imp.ImportFile(context.Background(), "testdata/import/plain.md", interfaces.ImportOptions{})
	if !errors.Is(err, ErrTargetRequired) {
		t.Fatalf("expected ErrTargetRequired, got %v", err)
	}
}

func newTestImporter(tb testing.TB, store storage.Provider) *Importer {
	tb.Helper()

	imp, err := NewImporter(ImporterConfig{
		Storage:   store,
		TargetDir: "content",
	})
	if err != nil {
		tb.Fatalf("NewImporter: %v", err)
	}
	return imp
}

type memoryStorage struct {
	files     map[string][]byte
	failPaths map[string]bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		files:     map[string][]byte{},
		failPaths: map[string]bool{},
	}
}

func (m *memoryStorage) EnsureDir(ctx context.Context, path string) error { return nil }

func (m *memoryStorage) WriteFile(ctx context.Context, req storage.WriteRequest) error {
	if m.failPaths[req.Path] {
		return fmt.Errorf("memory storage: write %s refused", req.Path)
	}
	var buf bytes.Buffer
	if req.Content != nil {
		if _, err := io.Copy(&buf, req.Content); err != nil {
			return err
		}
	}
	m.files[req.Path] = buf.Bytes()
	return nil
}

func (m *memoryStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *memoryStorage) Remove(ctx context.Context, path string) error {
	delete(m.files, path)
	return nil
}
