package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-press/pkg/interfaces"
	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"
)

// buildContext carries the resolved inputs of a single build run: the
// documents to render, the active theme selection, and the previous build
// manifest when incremental reuse is possible. The next manifest is assembled
// concurrently while artifacts are written.
type buildContext struct {
	buildID     string
	generatedAt time.Time
	docs        []*interfaces.Document
	failures    []documentFailure
	selection   *gotheme.Selection
	theme       ThemeContext
	themeRoot   string
	fingerprint string
	incremental bool
	previous    *buildManifest
	// collisions maps a document source to the error describing why its
	// output path was refused. Populated before rendering starts and
	// read-only afterwards.
	collisions map[string]error

	mu   sync.Mutex
	next *buildManifest
}

// documentFailure records a source file that could not be loaded. Failures
// surface as build diagnostics without stopping the other documents.
type documentFailure struct {
	path string
	err  error
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*buildContext, error) {
	docs, failures, err := s.loadDocuments(ctx, opts)
	if err != nil {
		return nil, err
	}

	selection, err := s.loadSelection()
	if err != nil {
		return nil, err
	}

	fingerprint := s.computeFingerprint(selection)
	previous := s.loadManifest(ctx)
	incremental := s.cfg.Incremental && !opts.Force && previous != nil &&
		previous.Fingerprint == fingerprint

	generatedAt := s.now().UTC()
	next := newBuildManifest()
	next.GeneratedAt = generatedAt
	next.BuildID = uuid.NewString()
	next.Site = s.cfg.Site.Title
	next.Fingerprint = fingerprint

	return &buildContext{
		buildID:     next.BuildID,
		generatedAt: generatedAt,
		docs:        docs,
		failures:    failures,
		selection:   selection,
		theme:       buildThemeContext(selection, s.cfg.Theming),
		themeRoot:   s.themeRoot(selection),
		fingerprint: fingerprint,
		incremental: incremental,
		previous:    previous,
		next:        next,
	}, nil
}

// loadDocuments resolves the documents in scope for a build. Load failures
// stay per-file: a document with malformed front matter is reported and set
// aside while every other document continues through the pipeline.
func (s *service) loadDocuments(ctx context.Context, opts BuildOptions) ([]*interfaces.Document, []documentFailure, error) {
	loadOpts := interfaces.LoadOptions{SkipRender: true}
	paths := opts.Paths
	if len(paths) == 0 {
		listed, err := s.deps.Markdown.ListDocuments(ctx, ".", loadOpts)
		if err != nil {
			return nil, nil, fmt.Errorf("generator: list documents: %w", err)
		}
		paths = listed
	}

	docs := make([]*interfaces.Document, 0, len(paths))
	var failures []documentFailure
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		doc, err := s.deps.Markdown.Load(ctx, path, loadOpts)
		if err != nil {
			failures = append(failures, documentFailure{
				path: path,
				err:  fmt.Errorf("generator: load document %s: %w", path, err),
			})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failures, nil
}

// computeFingerprint hashes the build environment. A mismatch with the stored
// manifest disables incremental reuse for the run: a theme or layout change
// invalidates every page even when its source is untouched.
func (s *service) computeFingerprint(selection *gotheme.Selection) string {
	sources := map[string]string{
		"base_url": strings.TrimSpace(s.cfg.BaseURL),
		"site":     strings.TrimSpace(s.cfg.Site.Title),
	}
	if selection != nil {
		sources["theme"] = joinParts(selection.Theme, selection.Variant)
	}
	if s.deps.Layouts != nil {
		sources["layouts"] = joinParts(s.deps.Layouts.Names()...)
	}
	return hashSources(sources)
}

// detectOutputCollisions resolves every document's output path in listing
// order and marks the later claimants of an already-taken path. The first
// claimant keeps the output; resolution failures are left for renderDocument
// to report.
func (s *service) detectOutputCollisions(bc *buildContext) {
	claimed := make(map[string]string, len(bc.docs))
	for _, doc := range bc.docs {
		route, err := s.permalinks.Resolve(doc)
		if err != nil {
			continue
		}
		output := buildOutputPath(route)
		source := doc.Source()
		owner, taken := claimed[output]
		if !taken {
			claimed[output] = source
			continue
		}
		if bc.collisions == nil {
			bc.collisions = make(map[string]error, 1)
		}
		bc.collisions[source] = fmt.Errorf("generator: output %s for %s already claimed by %s", output, source, owner)
	}
}

func (bc *buildContext) recordArtifact(entry manifestEntry) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.next.set(entry)
}

func (bc *buildContext) shouldSkip(category, source, sourceChecksum, output string) bool {
	if !bc.incremental || bc.previous == nil {
		return false
	}
	return bc.previous.shouldSkip(category, source, sourceChecksum, output)
}

// seedFromPrevious copies every entry of the previous manifest into the next
// one. Scoped builds overwrite only the entries they touch, so the rest of
// the site stays tracked.
func (bc *buildContext) seedFromPrevious() {
	if bc.previous == nil {
		return
	}
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for _, entry := range bc.previous.Entries {
		bc.next.set(entry)
	}
}

// carryForward copies the previous manifest entry for a skipped artifact into
// the next manifest so skipped outputs stay tracked.
func (bc *buildContext) carryForward(category, source string) {
	if bc.previous == nil {
		return
	}
	if entry, ok := bc.previous.lookup(category, source); ok {
		bc.recordArtifact(entry)
	}
}

func checksumHex(doc *interfaces.Document) string {
	if doc == nil || len(doc.Checksum) == 0 {
		return ""
	}
	return hex.EncodeToString(doc.Checksum)
}

func joinParts(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "|")
}

func hashSources(sources map[string]string) string {
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte{'='})
		hasher.Write([]byte(sources[key]))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func maxTime(instants ...time.Time) time.Time {
	var max time.Time
	for _, ts := range instants {
		if ts.After(max) {
			max = ts
		}
	}
	return max
}
