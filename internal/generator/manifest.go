package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-press/pkg/storage"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	manifestFileName    = ".press-manifest.json"
	manifestFileVersion = 1
)

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error
)

func compiledManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("manifest.schema.json", strings.NewReader(storage.ManifestJSONSchema)); err != nil {
			manifestSchemaErr = fmt.Errorf("generator: add manifest schema: %w", err)
			return
		}
		manifestSchema, manifestSchemaErr = compiler.Compile("manifest.schema.json")
	})
	return manifestSchema, manifestSchemaErr
}

// buildManifest stores metadata about the last successful build to support
// incremental runs and manifest-driven cleanup.
type buildManifest struct {
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	BuildID     string          `json:"build_id,omitempty"`
	Site        string          `json:"site,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Entries     []manifestEntry `json:"entries"`

	index map[string]int `json:"-"`
}

type manifestEntry struct {
	Path           string `json:"path"`
	Source         string `json:"source,omitempty"`
	Layout         string `json:"layout,omitempty"`
	Permalink      string `json:"permalink,omitempty"`
	Checksum       string `json:"checksum,omitempty"`
	SourceChecksum string `json:"source_checksum,omitempty"`
	Size           int64  `json:"size,omitempty"`
	Category       string `json:"category"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Entries: []manifestEntry{},
		index:   map[string]int{},
	}
}

// parseManifest validates raw manifest bytes against the published schema and
// unmarshals them. Empty input yields a fresh manifest.
func parseManifest(data []byte) (*buildManifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return newBuildManifest(), nil
	}

	schema, err := compiledManifestSchema()
	if err != nil {
		return nil, err
	}
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	if err := schema.Validate(document); err != nil {
		return nil, fmt.Errorf("generator: manifest schema: %w", err)
	}

	var manifest buildManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	if manifest.Version == 0 {
		manifest.Version = manifestFileVersion
	}
	if manifest.Entries == nil {
		manifest.Entries = []manifestEntry{}
	}
	manifest.reindex()
	return &manifest, nil
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	cloned := *m
	if cloned.Version == 0 {
		cloned.Version = manifestFileVersion
	}
	cloned.Entries = append([]manifestEntry(nil), m.Entries...)
	sort.Slice(cloned.Entries, func(i, j int) bool {
		if cloned.Entries[i].Category == cloned.Entries[j].Category {
			return cloned.Entries[i].Path < cloned.Entries[j].Path
		}
		return cloned.Entries[i].Category < cloned.Entries[j].Category
	})
	return json.MarshalIndent(cloned, "", "  ")
}

func entryKey(category, source, pathValue string) string {
	id := strings.TrimSpace(source)
	if id == "" {
		id = strings.TrimSpace(pathValue)
	}
	return strings.ToLower(category) + "::" + id
}

func (m *buildManifest) reindex() {
	m.index = make(map[string]int, len(m.Entries))
	for i, entry := range m.Entries {
		m.index[entryKey(entry.Category, entry.Source, entry.Path)] = i
	}
}

func (m *buildManifest) lookup(category, source string) (manifestEntry, bool) {
	if m == nil || len(m.Entries) == 0 {
		return manifestEntry{}, false
	}
	if m.index == nil {
		m.reindex()
	}
	i, ok := m.index[entryKey(category, source, "")]
	if !ok {
		return manifestEntry{}, false
	}
	return m.Entries[i], true
}

func (m *buildManifest) set(entry manifestEntry) {
	if m == nil {
		return
	}
	if m.index == nil {
		m.reindex()
	}
	key := entryKey(entry.Category, entry.Source, entry.Path)
	if i, ok := m.index[key]; ok {
		m.Entries[i] = entry
		return
	}
	m.index[key] = len(m.Entries)
	m.Entries = append(m.Entries, entry)
}

// shouldSkip reports whether the artifact derived from source is already
// published at output with the same source content.
func (m *buildManifest) shouldSkip(category, source, sourceChecksum, output string) bool {
	entry, ok := m.lookup(category, source)
	if !ok {
		return false
	}
	if entry.SourceChecksum == "" || entry.SourceChecksum != sourceChecksum {
		return false
	}
	return strings.TrimSpace(entry.Path) == strings.TrimSpace(output)
}

// manifestLocation returns the storage path of the manifest for the given
// publish root.
func manifestLocation(baseDir string) string {
	base := strings.Trim(strings.TrimSpace(baseDir), "/")
	return joinOutputPath(base, manifestFileName)
}

func manifestDir(pathValue string) string {
	dir := strings.TrimSpace(path.Dir(strings.TrimSpace(pathValue)))
	if dir == "." {
		return ""
	}
	return dir
}
