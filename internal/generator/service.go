package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/pkg/storage"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled = errors.New("generator: service disabled")
	// ErrMarkdownRequired indicates the generator was constructed without a
	// markdown service.
	ErrMarkdownRequired = errors.New("generator: markdown service is required")
	// ErrLayoutsRequired indicates the generator was constructed without a
	// layout renderer.
	ErrLayoutsRequired = errors.New("generator: layout renderer is required")
	// ErrStorageRequired indicates an operation needs a storage provider.
	ErrStorageRequired = errors.New("generator: storage provider is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	BuildPage(ctx context.Context, path string) error
	BuildAssets(ctx context.Context) error
	BuildSitemap(ctx context.Context) error
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir       string
	BaseURL         string
	Site            SiteMetadata
	StaticDir       string
	DefaultLayout   string
	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
	Parser          interfaces.ParseOptions
	Theming         ThemingConfig
	Permalinks      PermalinkConfig
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	// Paths restricts the build to the named documents. Site-wide artifacts
	// (assets, sitemap, feeds) are not regenerated for scoped runs.
	Paths []string
	// Force disables incremental reuse for this run.
	Force  bool
	DryRun bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt     int
	PagesSkipped   int
	AssetsBuilt    int
	AssetsSkipped  int
	FeedsBuilt     int
	SitemapWritten bool
	RobotsWritten  bool
	Duration       time.Duration
	Rendered       []RenderedPage
	Diagnostics    []RenderDiagnostic
	Errors         []error
	DryRun         bool
}

// LayoutRenderer is the slice of the layout service the generator needs.
type LayoutRenderer interface {
	RenderLayout(layout string, source string, data any) (string, error)
	Has(name string) bool
	Names() []string
}

// Hooks let callers observe build lifecycle events. Every hook is optional.
// BeforeBuild and BeforeClean abort the operation when they fail; the other
// hooks report their failures through the build result.
type Hooks struct {
	BeforeBuild func(ctx context.Context, opts BuildOptions) error
	AfterBuild  func(ctx context.Context, opts BuildOptions, result *BuildResult) error
	AfterPage   func(ctx context.Context, page RenderedPage) error
	BeforeClean func(ctx context.Context, outputDir string) error
	AfterClean  func(ctx context.Context, outputDir string) error
}

// Dependencies lists the collaborators required by the generator.
type Dependencies struct {
	Markdown interfaces.MarkdownService
	Layouts  LayoutRenderer
	Themes   themeSelector
	Storage  storage.Provider
	Assets   AssetResolver
	Logger   interfaces.LoggerProvider
	Hooks    Hooks
}

// NewService wires a generator implementation with the provided configuration
// and dependencies. Missing dependencies surface as errors on the operations
// that need them, so partial wirings (markdown only, no storage) stay usable.
func NewService(cfg Config, deps Dependencies) Service {
	if strings.TrimSpace(cfg.DefaultLayout) == "" {
		cfg.DefaultLayout = "default"
	}
	if strings.TrimSpace(cfg.Site.BaseURL) == "" {
		cfg.Site.BaseURL = cfg.BaseURL
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = cfg.Site.BaseURL
	}
	if deps.Assets == nil {
		deps.Assets = fsAssetResolver{}
	}

	return &service{
		cfg:        cfg,
		deps:       deps,
		permalinks: newPermalinkResolver(cfg.Permalinks),
		logger:     logging.GeneratorLogger(deps.Logger),
		now:        time.Now,
	}
}

// NewDisabledService returns a Service that fails all operations with
// ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg        Config
	deps       Dependencies
	permalinks *permalinkResolver
	logger     interfaces.Logger
	now        func() time.Time
}

type disabledService struct{}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}
func (disabledService) BuildPage(context.Context, string) error { return ErrServiceDisabled }
func (disabledService) BuildAssets(context.Context) error       { return ErrServiceDisabled }
func (disabledService) BuildSitemap(context.Context) error      { return ErrServiceDisabled }
func (disabledService) Clean(context.Context) error             { return ErrServiceDisabled }

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Markdown == nil {
		return nil, ErrMarkdownRequired
	}
	if s.deps.Layouts == nil {
		return nil, ErrLayoutsRequired
	}
	if hook := s.deps.Hooks.BeforeBuild; hook != nil {
		if err := hook(ctx, opts); err != nil {
			return nil, fmt.Errorf("generator: before build hook: %w", err)
		}
	}

	start := time.Now()
	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.detectOutputCollisions(buildCtx)

	scoped := len(opts.Paths) > 0
	if scoped {
		buildCtx.seedFromPrevious()
	}

	result := &BuildResult{
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(buildCtx.docs)+len(buildCtx.failures)),
	}

	var (
		mu          sync.Mutex
		rendered    = make([]RenderedPage, 0, len(buildCtx.docs))
		carried     []RenderedPage
		errorsSlice []error
	)
	for _, failure := range buildCtx.failures {
		result.Diagnostics = append(result.Diagnostics, RenderDiagnostic{
			Source: failure.path,
			Err:    failure.err,
		})
		errorsSlice = append(errorsSlice, failure.err)
	}
	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.PagesSkipped++
			carried = append(carried, outcome.page)
			return
		}
		result.PagesBuilt++
		rendered = append(rendered, outcome.page)
	}

	s.renderConcurrently(ctx, buildCtx, opts, collect)
	if err := ctx.Err(); err != nil {
		errorsSlice = append(errorsSlice, err)
	}

	sort.Slice(rendered, func(i, j int) bool { return rendered[i].Source < rendered[j].Source })
	sort.Slice(carried, func(i, j int) bool { return carried[i].Source < carried[j].Source })
	result.Rendered = rendered

	if opts.DryRun {
		result.Duration = time.Since(start)
		result.Errors = append(result.Errors, errorsSlice...)
		if hook := s.deps.Hooks.AfterBuild; hook != nil {
			if err := hook(ctx, opts, result); err != nil {
				errorsSlice = append(errorsSlice, fmt.Errorf("generator: after build hook: %w", err))
				result.Errors = append(result.Errors, errorsSlice[len(errorsSlice)-1])
			}
		}
		return result, errors.Join(errorsSlice...)
	}

	writer := newArtifactWriter(s.deps.Storage)
	if s.cfg.CleanBuild && !scoped {
		if err := s.cleanOutputs(ctx); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if err := s.persistPages(ctx, writer, buildCtx, rendered); err != nil {
		errorsSlice = append(errorsSlice, err)
	}
	if hook := s.deps.Hooks.AfterPage; hook != nil {
		for _, page := range rendered {
			if err := hook(ctx, page); err != nil {
				errorsSlice = append(errorsSlice, fmt.Errorf("generator: after page hook %s: %w", page.Source, err))
			}
		}
	}
	for _, page := range carried {
		buildCtx.carryForward(string(storage.CategoryPage), page.Source)
	}

	if !scoped {
		allPages := append(append([]RenderedPage(nil), rendered...), carried...)
		sort.Slice(allPages, func(i, j int) bool { return allPages[i].Route < allPages[j].Route })

		if s.cfg.CopyAssets {
			built, skipped, err := s.copyAssets(ctx, writer, buildCtx)
			if err != nil {
				errorsSlice = append(errorsSlice, err)
			}
			result.AssetsBuilt = built
			result.AssetsSkipped = skipped
		}

		if s.cfg.GenerateSitemap {
			if err := s.writeSitemap(ctx, writer, buildCtx, allPages); err != nil {
				errorsSlice = append(errorsSlice, err)
			} else {
				result.SitemapWritten = true
			}
		}

		if s.cfg.GenerateRobots {
			if err := s.writeRobots(ctx, writer, buildCtx); err != nil {
				errorsSlice = append(errorsSlice, err)
			} else {
				result.RobotsWritten = true
			}
		}

		if s.cfg.GenerateFeeds {
			feeds, err := s.writeFeeds(ctx, writer, buildCtx, allPages)
			if err != nil {
				errorsSlice = append(errorsSlice, err)
			}
			result.FeedsBuilt = feeds
		}
	}

	if err := s.persistManifest(ctx, writer, buildCtx.next); err != nil {
		errorsSlice = append(errorsSlice, err)
	}

	result.Duration = time.Since(start)
	result.Errors = append(result.Errors, errorsSlice...)

	if hook := s.deps.Hooks.AfterBuild; hook != nil {
		if err := hook(ctx, opts, result); err != nil {
			errorsSlice = append(errorsSlice, fmt.Errorf("generator: after build hook: %w", err))
			result.Errors = append(result.Errors, errorsSlice[len(errorsSlice)-1])
		}
	}

	s.logger.Info("build complete",
		"pages_built", result.PagesBuilt,
		"pages_skipped", result.PagesSkipped,
		"assets_built", result.AssetsBuilt,
		"errors", len(result.Errors),
		"duration", result.Duration.String(),
	)
	return result, errors.Join(errorsSlice...)
}

func (s *service) BuildPage(ctx context.Context, docPath string) error {
	docPath = strings.TrimSpace(docPath)
	if docPath == "" {
		return fmt.Errorf("generator: build page requires a document path")
	}
	_, err := s.Build(ctx, BuildOptions{Paths: []string{docPath}})
	return err
}

func (s *service) BuildAssets(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if hook := s.deps.Hooks.BeforeBuild; hook != nil {
		if err := hook(ctx, BuildOptions{}); err != nil {
			return fmt.Errorf("generator: before build hook: %w", err)
		}
	}

	selection, err := s.loadSelection()
	if err != nil {
		return err
	}
	buildCtx := &buildContext{
		generatedAt: s.now().UTC(),
		selection:   selection,
		theme:       buildThemeContext(selection, s.cfg.Theming),
		themeRoot:   s.themeRoot(selection),
		fingerprint: s.computeFingerprint(selection),
		incremental: s.cfg.Incremental,
		previous:    s.loadManifest(ctx),
		next:        newBuildManifest(),
	}
	buildCtx.next.GeneratedAt = buildCtx.generatedAt
	buildCtx.next.Site = s.cfg.Site.Title
	buildCtx.next.Fingerprint = buildCtx.fingerprint
	buildCtx.seedFromPrevious()

	writer := newArtifactWriter(s.deps.Storage)
	built, skipped, err := s.copyAssets(ctx, writer, buildCtx)
	if err != nil {
		return err
	}
	if err := s.persistManifest(ctx, writer, buildCtx.next); err != nil {
		return err
	}
	if hook := s.deps.Hooks.AfterBuild; hook != nil {
		result := &BuildResult{AssetsBuilt: built, AssetsSkipped: skipped}
		if err := hook(ctx, BuildOptions{}, result); err != nil {
			return fmt.Errorf("generator: after build hook: %w", err)
		}
	}
	return nil
}

func (s *service) BuildSitemap(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.deps.Markdown == nil {
		return ErrMarkdownRequired
	}

	buildCtx, err := s.loadContext(ctx, BuildOptions{})
	if err != nil {
		return err
	}
	buildCtx.seedFromPrevious()

	pages := make([]RenderedPage, 0, len(buildCtx.docs))
	for _, doc := range buildCtx.docs {
		route, err := s.permalinks.Resolve(doc)
		if err != nil {
			continue
		}
		pages = append(pages, RenderedPage{
			Source:       doc.Source(),
			Route:        route,
			LastModified: maxTime(doc.LastModified, documentPublishedAt(doc)),
		})
	}

	writer := newArtifactWriter(s.deps.Storage)
	if err := s.writeSitemap(ctx, writer, buildCtx, pages); err != nil {
		return err
	}
	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer, buildCtx); err != nil {
			return err
		}
	}
	return s.persistManifest(ctx, writer, buildCtx.next)
}

// Clean removes every artifact the last build tracked; without a readable
// manifest it falls back to removing the output directory tree.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.deps.Storage == nil {
		return ErrStorageRequired
	}

	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	if hook := s.deps.Hooks.BeforeClean; hook != nil {
		if err := hook(ctx, baseDir); err != nil {
			return fmt.Errorf("generator: before clean hook: %w", err)
		}
	}

	if err := s.removeArtifacts(ctx, baseDir); err != nil {
		return err
	}

	if hook := s.deps.Hooks.AfterClean; hook != nil {
		if err := hook(ctx, baseDir); err != nil {
			return fmt.Errorf("generator: after clean hook: %w", err)
		}
	}
	return nil
}

func (s *service) removeArtifacts(ctx context.Context, baseDir string) error {
	target := manifestLocation(baseDir)
	data, err := s.deps.Storage.ReadFile(ctx, target)
	if err == nil {
		if manifest, perr := parseManifest(data); perr == nil {
			for _, entry := range manifest.Entries {
				full := joinOutputPath(baseDir, entry.Path)
				if err := s.deps.Storage.Remove(ctx, full); err != nil {
					return fmt.Errorf("generator: clean %s: %w", full, err)
				}
			}
			if err := s.deps.Storage.Remove(ctx, target); err != nil {
				return fmt.Errorf("generator: clean manifest: %w", err)
			}
			return nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("generator: read manifest: %w", err)
	}

	if baseDir == "" {
		return fmt.Errorf("generator: refusing to clean unset output dir")
	}
	return s.deps.Storage.Remove(ctx, baseDir)
}

// cleanOutputs backs CleanBuild: a full wipe before the build writes.
func (s *service) cleanOutputs(ctx context.Context) error {
	if s.deps.Storage == nil {
		return nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	if baseDir == "" {
		return fmt.Errorf("generator: refusing to clean unset output dir")
	}
	return s.deps.Storage.Remove(ctx, baseDir)
}

func (s *service) renderConcurrently(ctx context.Context, buildCtx *buildContext, opts BuildOptions, collect func(renderOutcome)) {
	docs := buildCtx.docs
	if len(docs) == 0 {
		return
	}

	workers := s.effectiveWorkerCount(len(docs))
	if workers <= 1 || len(docs) <= 1 {
		for _, doc := range docs {
			if ctx.Err() != nil {
				return
			}
			collect(s.renderDocument(ctx, buildCtx, opts, doc))
		}
		return
	}

	batchSize := (len(docs) + workers - 1) / workers
	jobs := make(chan []*interfaces.Document)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				for _, doc := range batch {
					if ctx.Err() != nil {
						return
					}
					collect(s.renderDocument(ctx, buildCtx, opts, doc))
				}
			}
		}()
	}

	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- docs[start:end]:
		}
	}
	close(jobs)
	wg.Wait()
}

// renderDocument converts one document into a page: body to HTML, HTML into
// the layout named by the document's front matter. Failures stay scoped to
// the document so one bad file never aborts the batch.
func (s *service) renderDocument(ctx context.Context, buildCtx *buildContext, opts BuildOptions, doc *interfaces.Document) renderOutcome {
	source := doc.Source()
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{Source: source},
	}

	layout := strings.TrimSpace(doc.Meta.Layout())
	if layout == "" {
		layout = s.cfg.DefaultLayout
	}
	outcome.diagnostic.Layout = layout

	route, err := s.permalinks.Resolve(doc)
	if err != nil {
		outcome.err = err
		outcome.diagnostic.Err = err
		return outcome
	}
	outcome.diagnostic.Route = route
	output := buildOutputPath(route)

	if collision := buildCtx.collisions[source]; collision != nil {
		outcome.err = collision
		outcome.diagnostic.Err = collision
		return outcome
	}

	sourceChecksum := checksumHex(doc)
	publishedAt := documentPublishedAt(doc)
	page := RenderedPage{
		Source:         source,
		Title:          doc.Meta.Title(),
		Layout:         layout,
		Route:          route,
		Output:         output,
		SourceChecksum: sourceChecksum,
		LastModified:   maxTime(doc.LastModified, publishedAt),
		PublishedAt:    publishedAt,
		Summary:        documentSummary(doc),
	}

	if buildCtx.shouldSkip(string(storage.CategoryPage), source, sourceChecksum, output) {
		outcome.skipped = true
		outcome.diagnostic.Skipped = true
		outcome.page = page
		return outcome
	}

	start := time.Now()
	html, warnings, err := s.deps.Markdown.RenderDocument(ctx, doc, s.cfg.Parser)
	if err != nil {
		wrapped := fmt.Errorf("generator: render %s: %w", source, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}
	outcome.diagnostic.Warnings = warnings

	templateCtx := TemplateContext{
		Site: s.cfg.Site,
		Page: PageRenderingContext{
			Document:  doc,
			Title:     page.Title,
			Layout:    layout,
			Permalink: route,
			Path:      doc.Meta.Path(),
			Content:   template.HTML(html),
			Meta:      doc.Meta.Map(),
			Warnings:  warnings,
		},
		Build: BuildMetadata{
			ID:          buildCtx.buildID,
			GeneratedAt: buildCtx.generatedAt,
			Options:     opts,
		},
		Theme:   buildCtx.theme,
		Helpers: newTemplateHelpers(s.cfg.BaseURL),
	}

	assembled, err := s.deps.Layouts.RenderLayout(layout, source, templateCtx)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: assemble %s: %w", source, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	page.HTML = assembled
	page.Checksum = computeHashFromString(assembled)
	page.Size = int64(len(assembled))
	page.Duration = duration
	page.Warnings = warnings
	outcome.page = page
	return outcome
}

func (s *service) persistPages(ctx context.Context, writer artifactWriter, buildCtx *buildContext, pages []RenderedPage) error {
	if len(pages) == 0 {
		return nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}
	if err := ensureDir(ctx, writer, dirCache, baseDir); err != nil {
		return err
	}

	for _, page := range pages {
		fullPath := joinOutputPath(baseDir, page.Output)
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		metadata := map[string]string{
			"source": page.Source,
			"route":  page.Route,
			"layout": page.Layout,
		}
		req := storage.WriteRequest{
			Path:        fullPath,
			Content:     strings.NewReader(page.HTML),
			Size:        page.Size,
			Category:    storage.CategoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    page.Checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return fmt.Errorf("generator: write page %s: %w", fullPath, err)
		}
		buildCtx.recordArtifact(manifestEntry{
			Path:           page.Output,
			Source:         page.Source,
			Layout:         page.Layout,
			Permalink:      page.Route,
			Checksum:       page.Checksum,
			SourceChecksum: page.SourceChecksum,
			Size:           page.Size,
			Category:       string(storage.CategoryPage),
		})
	}
	return nil
}

func (s *service) copyAssets(ctx context.Context, writer artifactWriter, buildCtx *buildContext) (int, int, error) {
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}
	if err := ensureDir(ctx, writer, dirCache, baseDir); err != nil {
		return 0, 0, err
	}

	built, skipped := 0, 0
	copyOne := func(sourceKey, rel string, data []byte) error {
		checksum := computeHash(data)
		if buildCtx.shouldSkip(string(storage.CategoryAsset), sourceKey, checksum, rel) {
			skipped++
			buildCtx.carryForward(string(storage.CategoryAsset), sourceKey)
			return nil
		}
		fullPath := joinOutputPath(baseDir, rel)
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		req := storage.WriteRequest{
			Path:        fullPath,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    storage.CategoryAsset,
			ContentType: detectAssetContentType(rel),
			Checksum:    checksum,
			Metadata:    map[string]string{"source": sourceKey},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return fmt.Errorf("generator: write asset %s: %w", fullPath, err)
		}
		buildCtx.recordArtifact(manifestEntry{
			Path:           rel,
			Source:         sourceKey,
			Checksum:       checksum,
			SourceChecksum: checksum,
			Size:           int64(len(data)),
			Category:       string(storage.CategoryAsset),
		})
		built++
		return nil
	}

	if buildCtx.themeRoot != "" {
		for _, asset := range collectThemeAssets(buildCtx.selection) {
			reader, err := s.deps.Assets.Open(ctx, buildCtx.themeRoot, asset)
			if err != nil {
				return built, skipped, fmt.Errorf("generator: open theme asset %s: %w", asset, err)
			}
			data, err := io.ReadAll(reader)
			_ = reader.Close()
			if err != nil {
				return built, skipped, fmt.Errorf("generator: read theme asset %s: %w", asset, err)
			}
			if err := copyOne("theme:"+asset, asset, data); err != nil {
				return built, skipped, err
			}
		}
	}

	staticAssets, err := collectStaticAssets(s.cfg.StaticDir)
	if err != nil {
		return built, skipped, err
	}
	for _, rel := range staticAssets {
		reader, err := s.deps.Assets.Open(ctx, s.cfg.StaticDir, rel)
		if err != nil {
			return built, skipped, fmt.Errorf("generator: open static asset %s: %w", rel, err)
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return built, skipped, fmt.Errorf("generator: read static asset %s: %w", rel, err)
		}
		if err := copyOne("static:"+rel, rel, data); err != nil {
			return built, skipped, err
		}
	}

	return built, skipped, nil
}

func (s *service) writeSitemap(ctx context.Context, writer artifactWriter, buildCtx *buildContext, pages []RenderedPage) error {
	content := buildSitemap(s.cfg.BaseURL, pages, buildCtx.generatedAt)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "sitemap.xml")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	checksum := computeHashFromString(content)
	req := storage.WriteRequest{
		Path:        fullPath,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    storage.CategorySitemap,
		ContentType: "application/xml",
		Checksum:    checksum,
		Metadata: map[string]string{
			"generated_at": buildCtx.generatedAt.UTC().Format(time.RFC3339),
		},
	}
	if err := writer.WriteFile(ctx, req); err != nil {
		return err
	}
	buildCtx.recordArtifact(manifestEntry{
		Path:     "sitemap.xml",
		Checksum: checksum,
		Size:     int64(len(content)),
		Category: string(storage.CategorySitemap),
	})
	return nil
}

func (s *service) writeRobots(ctx context.Context, writer artifactWriter, buildCtx *buildContext) error {
	content := buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "robots.txt")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return err
	}
	checksum := computeHashFromString(content)
	req := storage.WriteRequest{
		Path:        fullPath,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    storage.CategoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    checksum,
		Metadata: map[string]string{
			"generated_at": buildCtx.generatedAt.UTC().Format(time.RFC3339),
		},
	}
	if err := writer.WriteFile(ctx, req); err != nil {
		return err
	}
	buildCtx.recordArtifact(manifestEntry{
		Path:     "robots.txt",
		Checksum: checksum,
		Size:     int64(len(content)),
		Category: string(storage.CategoryRobots),
	})
	return nil
}

// loadManifest reads the previous build manifest. A missing or unreadable
// manifest is not an error; the build simply runs from scratch.
func (s *service) loadManifest(ctx context.Context) *buildManifest {
	if s.deps.Storage == nil {
		return nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	data, err := s.deps.Storage.ReadFile(ctx, manifestLocation(baseDir))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("manifest unreadable, rebuilding from scratch", "error", err)
		}
		return nil
	}
	manifest, err := parseManifest(data)
	if err != nil {
		s.logger.Warn("manifest invalid, rebuilding from scratch", "error", err)
		return nil
	}
	return manifest
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	if manifest == nil {
		return nil
	}
	data, err := manifest.marshal()
	if err != nil {
		return fmt.Errorf("generator: marshal manifest: %w", err)
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	target := manifestLocation(baseDir)
	if err := ensureDir(ctx, writer, map[string]struct{}{}, manifestDir(target)); err != nil {
		return err
	}
	metadata := map[string]string{
		"version": strconv.Itoa(manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	req := storage.WriteRequest{
		Path:        target,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    storage.CategoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) effectiveWorkerCount(docCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if docCount > 0 && workers > docCount {
		return docCount
	}
	return workers
}

func documentPublishedAt(doc *interfaces.Document) time.Time {
	raw := strings.TrimSpace(doc.Meta.Get("date"))
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func documentSummary(doc *interfaces.Document) string {
	for _, key := range []string{"summary", "description"} {
		if value := strings.TrimSpace(doc.Meta.Get(key)); value != "" {
			return normalizeWhitespace(value)
		}
	}
	return ""
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}
