package markdown

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	adrg "github.com/adrg/frontmatter"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-press/internal/frontmatter"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/pkg/storage"
)

// canonicalKeyOrder fixes the position of well-known keys in normalised
// blocks. Remaining keys follow alphabetically; the original order cannot be
// recovered from a lenient YAML parse.
var canonicalKeyOrder = []string{
	interfaces.KeyLayout,
	interfaces.KeyPermalink,
	interfaces.KeyTitle,
	interfaces.KeyPath,
	"date",
	"tags",
}

// datedFilename matches the date prefix convention many blog trees use for
// post files (2015-03-10-title.md).
var datedFilename = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

// ImporterConfig encapsulates the dependencies required to normalise foreign
// document trees.
type ImporterConfig struct {
	// Storage receives the normalised documents.
	Storage storage.Provider
	// TargetDir is the default destination when import options name none.
	TargetDir string
	// DefaultLayout fills the layout key when the source declares none.
	DefaultLayout string
	Logger        interfaces.Logger
}

// Importer rewrites foreign Markdown trees (full YAML front matter, arbitrary
// metadata shapes) into canonical press documents: ordered line-oriented
// front matter with plain string values, required keys filled in.
type Importer struct {
	storage storage.Provider
	target  string
	layout  string
	logger  interfaces.Logger
}

// NewImporter builds an Importer from the supplied configuration.
func NewImporter(cfg ImporterConfig) (*Importer, error) {
	if cfg.Storage == nil {
		return nil, ErrStorageRequired
	}
	layout := strings.TrimSpace(cfg.DefaultLayout)
	if layout == "" {
		layout = "post"
	}
	return &Importer{
		storage: cfg.Storage,
		target:  strings.TrimSpace(cfg.TargetDir),
		layout:  layout,
		logger:  cfg.Logger,
	}, nil
}

// ImportFile normalises a single foreign document.
func (i *Importer) ImportFile(ctx context.Context, filePath string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	target, err := i.targetDir(opts)
	if err != nil {
		return nil, err
	}

	acc := newImportAccumulator()
	i.importOne(ctx, filePath, filepath.Base(filePath), target, opts, acc)
	return acc.result(), firstError(acc.errors)
}

// ImportDirectory walks dir for Markdown files and normalises each one.
// Failures accumulate per file; one broken document never aborts the batch.
func (i *Importer) ImportDirectory(ctx context.Context, dir string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	target, err := i.targetDir(opts)
	if err != nil {
		return nil, err
	}

	acc := newImportAccumulator()

	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			rel = filepath.Base(p)
		}
		i.importOne(ctx, p, filepath.ToSlash(rel), target, opts, acc)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("markdown importer: walk %s: %w", dir, walkErr)
	}

	return acc.result(), firstError(acc.errors)
}

// importOne carries a single source file through parse, normalise, write.
func (i *Importer) importOne(ctx context.Context, sourcePath, rel, target string, opts interfaces.ImportOptions, acc *importAccumulator) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		acc.addError(fmt.Errorf("markdown importer: read %s: %w", sourcePath, err))
		return
	}

	normalised, err := i.normalise(rel, data)
	if err != nil {
		acc.addError(fmt.Errorf("markdown importer: normalise %s: %w", sourcePath, err))
		return
	}

	targetPath := path.Join(target, normalisedRelPath(rel))

	if !opts.Overwrite {
		if _, readErr := i.storage.ReadFile(ctx, targetPath); readErr == nil {
			i.log("import.skip.exists", "source", sourcePath, "target", targetPath)
			acc.skip(targetPath)
			return
		} else if !errors.Is(readErr, fs.ErrNotExist) && !errors.Is(readErr, os.ErrNotExist) {
			acc.addError(fmt.Errorf("markdown importer: probe %s: %w", targetPath, readErr))
			return
		}
	}

	if opts.DryRun {
		i.log("import.skip.dry_run", "source", sourcePath, "target", targetPath)
		acc.skip(targetPath)
		return
	}

	sum := sha256.Sum256(normalised)
	writeErr := i.storage.WriteFile(ctx, storage.WriteRequest{
		Path:        targetPath,
		Content:     bytes.NewReader(normalised),
		Size:        int64(len(normalised)),
		Category:    storage.CategoryDocument,
		ContentType: "text/markdown; charset=utf-8",
		Checksum:    hex.EncodeToString(sum[:]),
		Metadata: map[string]string{
			"source": sourcePath,
		},
	})
	if writeErr != nil {
		acc.addError(fmt.Errorf("markdown importer: write %s: %w", targetPath, writeErr))
		return
	}

	i.log("import.success", "source", sourcePath, "target", targetPath)
	acc.imported(targetPath)
}

// normalise parses the foreign front matter leniently and rebuilds the
// document with a canonical block. Documents that already parse canonically
// pass through with only the required keys filled in.
func (i *Importer) normalise(rel string, data []byte) ([]byte, error) {
	meta := map[string]any{}
	body, err := adrg.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	flattened := flattenMetadata(meta)
	fields := i.deriveFields(rel, flattened)

	doc := frontmatter.Join(frontmatter.Compose(fields...), body)

	// The rewritten block must parse under the canonical rules it claims to
	// follow.
	if _, _, verifyErr := frontmatter.Extract(doc); verifyErr != nil {
		return nil, fmt.Errorf("verify canonical block: %w", verifyErr)
	}
	return doc, nil
}

// deriveFields orders the flattened metadata and fills the required keys the
// source left out: layout falls back to the configured default, the title to
// a humanised file name, the permalink to the slug, and the path to the
// source's directory.
func (i *Importer) deriveFields(rel string, flattened map[string]string) []frontmatter.Field {
	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	if match := datedFilename.FindStringSubmatch(name); match != nil {
		name = match[4]
		if flattened["date"] == "" {
			flattened["date"] = fmt.Sprintf("%s-%s-%s", match[1], match[2], match[3])
		}
	}

	if flattened[interfaces.KeyLayout] == "" {
		flattened[interfaces.KeyLayout] = i.layout
	}
	if flattened[interfaces.KeyTitle] == "" {
		flattened[interfaces.KeyTitle] = humaniseName(name)
	}
	if flattened[interfaces.KeyPermalink] == "" {
		slugged, err := slug.Normalize(flattened[interfaces.KeyTitle])
		if err != nil || slugged == "" {
			slugged, err = slug.Normalize(name)
			if err != nil || slugged == "" {
				slugged = name
			}
		}
		flattened[interfaces.KeyPermalink] = "/" + slugged + "/"
	}
	if flattened[interfaces.KeyPath] == "" {
		dir := path.Dir(filepath.ToSlash(rel))
		if dir == "." || dir == "/" {
			dir = "posts"
		}
		flattened[interfaces.KeyPath] = dir
	}

	fields := make([]frontmatter.Field, 0, len(flattened))
	used := map[string]struct{}{}
	for _, key := range canonicalKeyOrder {
		if value, ok := flattened[key]; ok && value != "" {
			fields = append(fields, frontmatter.Field{Key: key, Value: value})
			used[key] = struct{}{}
		}
	}

	rest := make([]string, 0, len(flattened))
	for key := range flattened {
		if _, ok := used[key]; ok {
			continue
		}
		if flattened[key] == "" {
			continue
		}
		rest = append(rest, key)
	}
	sort.Strings(rest)
	for _, key := range rest {
		fields = append(fields, frontmatter.Field{Key: key, Value: flattened[key]})
	}

	return fields
}

func (i *Importer) targetDir(opts interfaces.ImportOptions) (string, error) {
	target := strings.TrimSpace(opts.TargetDir)
	if target == "" {
		target = i.target
	}
	if target == "" {
		return "", ErrTargetRequired
	}
	return filepath.ToSlash(target), nil
}

func (i *Importer) log(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Info(msg, args...)
	}
}

// normalisedRelPath strips the date prefix convention from the file name so
// imported trees land under their slug names.
func normalisedRelPath(rel string) string {
	rel = filepath.ToSlash(rel)
	dir, name := path.Split(rel)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if match := datedFilename.FindStringSubmatch(stem); match != nil {
		stem = match[4]
	}
	return path.Join(dir, stem+ext)
}

// humaniseName turns a slug-ish file name into a readable title.
func humaniseName(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	words := strings.Fields(cleaned)
	for idx, word := range words {
		words[idx] = strings.ToUpper(word[:1]) + word[1:]
	}
	if len(words) == 0 {
		return "Untitled"
	}
	return strings.Join(words, " ")
}

// flattenMetadata reduces arbitrary YAML metadata to string pairs: nested
// maps flatten to dotted keys, scalar lists join with commas, scalars render
// with their YAML spelling.
func flattenMetadata(meta map[string]any) map[string]string {
	out := map[string]string{}
	flattenInto(out, "", meta)
	return out
}

func flattenInto(out map[string]string, prefix string, value any) {
	switch typed := value.(type) {
	case map[string]any:
		for key, nested := range typed {
			flattenInto(out, joinKey(prefix, key), nested)
		}
	case map[any]any:
		for key, nested := range typed {
			flattenInto(out, joinKey(prefix, fmt.Sprint(key)), nested)
		}
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, scalarString(item))
		}
		if prefix != "" {
			out[prefix] = strings.Join(parts, ", ")
		}
	default:
		if prefix != "" {
			out[prefix] = scalarString(value)
		}
	}
}

func joinKey(prefix, key string) string {
	key = strings.TrimSpace(key)
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func scalarString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case time.Time:
		return typed.UTC().Format("2006-01-02")
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

type importAccumulator struct {
	importedPaths []string
	skippedPaths  []string
	errors        []error
}

func newImportAccumulator() *importAccumulator {
	return &importAccumulator{
		importedPaths: []string{},
		skippedPaths:  []string{},
		errors:        []error{},
	}
}

func (a *importAccumulator) imported(path string) {
	a.importedPaths = append(a.importedPaths, path)
}

func (a *importAccumulator) skip(path string) {
	a.skippedPaths = append(a.skippedPaths, path)
}

func (a *importAccumulator) addError(err error) {
	if err != nil {
		a.errors = append(a.errors, err)
	}
}

func (a *importAccumulator) result() *interfaces.ImportResult {
	return &interfaces.ImportResult{
		Imported: a.importedPaths,
		Skipped:  a.skippedPaths,
		Errors:   a.errors,
	}
}

func firstError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
