package generator

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-press/internal/layouts"
	"github.com/goliatone/go-press/pkg/interfaces"
	"github.com/goliatone/go-press/pkg/storage"
)

func TestBuildRendersTemplateContext(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 5, 14, 30, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if result.PagesBuilt != 3 {
		t.Fatalf("expected 3 pages built, got %d", result.PagesBuilt)
	}
	if len(result.Rendered) != 3 {
		t.Fatalf("expected 3 rendered outputs, got %d", len(result.Rendered))
	}
	if len(result.Diagnostics) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(result.Diagnostics))
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	outputs := map[string]string{}
	for _, page := range result.Rendered {
		if page.Checksum == "" {
			t.Fatalf("expected checksum for page %s", page.Source)
		}
		outputs[page.Source] = page.Output
	}
	expectedOutputs := map[string]string{
		"about.md":         "about/index.html",
		"index.md":         "index.html",
		"posts/welcome.md": "posts/welcome/index.html",
	}
	for source, want := range expectedOutputs {
		if got := outputs[source]; got != want {
			t.Fatalf("expected output %q for %s, got %q", want, source, got)
		}
	}

	for _, target := range []string{
		"dist/index.html",
		"dist/about/index.html",
		"dist/posts/welcome/index.html",
		"dist/.press-manifest.json",
	} {
		if _, ok := fixtures.Storage.file(target); !ok {
			t.Fatalf("expected write to %s, have %v", target, fixtures.Storage.paths())
		}
	}

	calls := fixtures.Layouts.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 layout renders, got %d", len(calls))
	}
	for _, call := range calls {
		tc, ok := call.data.(TemplateContext)
		if !ok {
			t.Fatalf("expected TemplateContext, got %T", call.data)
		}
		if tc.Site.Title != "Press Site" {
			t.Fatalf("expected site title %q, got %q", "Press Site", tc.Site.Title)
		}
		if tc.Build.ID == "" {
			t.Fatal("expected build id in template context")
		}
		if !tc.Build.GeneratedAt.Equal(now) {
			t.Fatalf("expected generated at %v, got %v", now, tc.Build.GeneratedAt)
		}
		if got := tc.Helpers.WithBaseURL("company"); got != "https://example.com/company" {
			t.Fatalf("expected base URL helper %q, got %q", "https://example.com/company", got)
		}
		if call.source == "posts/welcome.md" {
			if call.layout != "post" {
				t.Fatalf("expected post layout, got %q", call.layout)
			}
			if tc.Page.Permalink != "/posts/welcome/" {
				t.Fatalf("expected permalink %q, got %q", "/posts/welcome/", tc.Page.Permalink)
			}
			if tc.Page.Content != template.HTML("<p>Welcome</p>") {
				t.Fatalf("unexpected page content %q", tc.Page.Content)
			}
		}
		if call.source == "about.md" && call.layout != "default" {
			t.Fatalf("expected default layout for about.md, got %q", call.layout)
		}
	}

	pageHTML, _ := fixtures.Storage.file("dist/posts/welcome/index.html")
	if !strings.Contains(string(pageHTML), "<p>Welcome</p>") {
		t.Fatalf("expected assembled page to contain body, got %q", pageHTML)
	}
}

func TestBuildUsesWorkerPool(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 18, 9, 45, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	fixtures.Config.Workers = 3
	fixtures.Layouts.delay = 2 * time.Millisecond

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 3 {
		t.Fatalf("expected 3 pages built, got %d", result.PagesBuilt)
	}
	if got := fixtures.Layouts.maxConcurrent.Load(); got < 2 {
		t.Fatalf("expected at least 2 concurrent renders, got %d", got)
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 4, 2, 18, 5, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	fixtures.Config.GenerateSitemap = true
	fixtures.Config.GenerateRobots = true

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }

	result, err := svc.Build(ctx, BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !result.DryRun {
		t.Fatal("expected dry-run flag")
	}
	if result.PagesBuilt != 3 {
		t.Fatalf("expected 3 pages built, got %d", result.PagesBuilt)
	}
	if len(result.Rendered) != 3 {
		t.Fatalf("expected rendered pages reported, got %d", len(result.Rendered))
	}
	if result.SitemapWritten || result.RobotsWritten {
		t.Fatal("expected no sitemap or robots writes in dry-run")
	}
	if got := fixtures.Storage.paths(); len(got) != 0 {
		t.Fatalf("expected no storage writes, got %v", got)
	}
}

func TestBuildIsolatesFailingDocuments(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	fixtures.Markdown.failures["posts/broken.md"] = fmt.Errorf("front matter not terminated")
	fixtures.Layouts.fail = map[string]error{
		"post": &layouts.LayoutNotFoundError{Layout: "post", Source: "posts/welcome.md"},
	}

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }

	result, err := svc.Build(ctx, BuildOptions{})
	if err == nil {
		t.Fatal("expected aggregate error")
	}

	// about.md and index.md still publish even though two documents failed.
	if result.PagesBuilt != 2 {
		t.Fatalf("expected 2 pages built, got %d", result.PagesBuilt)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
	if len(result.Diagnostics) != 4 {
		t.Fatalf("expected 4 diagnostics, got %d", len(result.Diagnostics))
	}

	var notFound *layouts.LayoutNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected LayoutNotFoundError in aggregate, got %v", err)
	}
	if notFound.Layout != "post" || notFound.Source != "posts/welcome.md" {
		t.Fatalf("expected layout and source on error, got %+v", notFound)
	}
	if !strings.Contains(err.Error(), "posts/broken.md") {
		t.Fatalf("expected load failure to name its source, got %v", err)
	}

	for _, target := range []string{"dist/about/index.html", "dist/index.html"} {
		if _, ok := fixtures.Storage.file(target); !ok {
			t.Fatalf("expected surviving page %s to be written", target)
		}
	}
	if _, ok := fixtures.Storage.file("dist/posts/welcome/index.html"); ok {
		t.Fatal("expected failing page to stay unwritten")
	}
}

func TestBuildRefusesOutputCollisions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 21, 11, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	// Sorts after about.md, so the original page claims /about/ first.
	fixtures.Markdown.add(fixtureDocument{
		path:  "about-again.md",
		title: "About Again",
		meta:  map[string]string{"permalink": "/about/"},
		body:  "About again",
		modAt: now.Add(-time.Hour),
	})

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }

	result, err := svc.Build(ctx, BuildOptions{})
	if err == nil {
		t.Fatal("expected aggregate error for colliding outputs")
	}
	if !strings.Contains(err.Error(), "already claimed by about-again.md") {
		t.Fatalf("expected collision error naming the first claimant, got %v", err)
	}

	if result.PagesBuilt != 3 {
		t.Fatalf("expected 3 pages built, got %d", result.PagesBuilt)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected single collision error, got %v", result.Errors)
	}

	var collided *RenderDiagnostic
	for i := range result.Diagnostics {
		if result.Diagnostics[i].Source == "about.md" {
			collided = &result.Diagnostics[i]
		}
	}
	if collided == nil || collided.Err == nil {
		t.Fatalf("expected diagnostic error for the second claimant, got %+v", result.Diagnostics)
	}

	page, ok := fixtures.Storage.file("dist/about/index.html")
	if !ok {
		t.Fatalf("expected first claimant's page, have %v", fixtures.Storage.paths())
	}
	if !strings.Contains(string(page), "<p>About Again</p>") {
		t.Fatalf("expected first claimant content to survive, got %q", page)
	}
}

func TestBuildGeneratesSiteArtifacts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	fixtures.Config.GenerateSitemap = true
	fixtures.Config.GenerateRobots = true
	fixtures.Config.GenerateFeeds = true

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !result.SitemapWritten || !result.RobotsWritten {
		t.Fatal("expected sitemap and robots writes")
	}
	if result.FeedsBuilt != 2 {
		t.Fatalf("expected 2 feeds, got %d", result.FeedsBuilt)
	}

	sitemap, ok := fixtures.Storage.file("dist/sitemap.xml")
	if !ok {
		t.Fatal("expected sitemap.xml")
	}
	for _, loc := range []string{
		"https://example.com/",
		"https://example.com/about/",
		"https://example.com/posts/welcome/",
	} {
		if !strings.Contains(string(sitemap), "<loc>"+loc+"</loc>") {
			t.Fatalf("expected sitemap to list %s, got %s", loc, sitemap)
		}
	}

	robots, ok := fixtures.Storage.file("dist/robots.txt")
	if !ok {
		t.Fatal("expected robots.txt")
	}
	if !strings.Contains(string(robots), "Sitemap: https://example.com/sitemap.xml") {
		t.Fatalf("expected robots to reference sitemap, got %s", robots)
	}

	feed, ok := fixtures.Storage.file("dist/feed.xml")
	if !ok {
		t.Fatal("expected feed.xml")
	}
	// Only the dated post is feed-worthy.
	if !strings.Contains(string(feed), "https://example.com/posts/welcome/") {
		t.Fatalf("expected feed to include dated post, got %s", feed)
	}
	if strings.Contains(string(feed), "https://example.com/about/") {
		t.Fatalf("expected undated page to stay out of the feed, got %s", feed)
	}
	if _, ok := fixtures.Storage.file("dist/feed.atom.xml"); !ok {
		t.Fatal("expected feed.atom.xml")
	}
}

func TestBuildSkipsUnchangedWithManifest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	fixtures.Config.Incremental = true
	fixtures.Config.GenerateSitemap = true

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("initial build: %v", err)
	}
	if fixtures.Layouts.CallCount() != 3 {
		t.Fatalf("expected 3 renders on first build, got %d", fixtures.Layouts.CallCount())
	}

	initialWrites := fixtures.Storage.writeCount()

	svc2 := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc2.now = func() time.Time { return now.Add(30 * time.Minute) }

	result, err := svc2.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("incremental build: %v", err)
	}
	if result.PagesBuilt != 0 {
		t.Fatalf("expected no rebuilt pages, got %d", result.PagesBuilt)
	}
	if result.PagesSkipped != 3 {
		t.Fatalf("expected 3 skipped pages, got %d", result.PagesSkipped)
	}
	if fixtures.Layouts.CallCount() != 3 {
		t.Fatalf("expected no further renders, got %d", fixtures.Layouts.CallCount())
	}
	pageWrites := 0
	for _, write := range fixtures.Storage.writes()[initialWrites:] {
		if write.category == storage.CategoryPage {
			pageWrites++
		}
	}
	if pageWrites != 0 {
		t.Fatalf("expected no page rewrites, got %d", pageWrites)
	}

	// Skipped pages keep their manifest entries and sitemap presence.
	manifest := fixtures.Storage.manifest(t, "dist")
	if got := len(manifest.Entries); got < 4 {
		t.Fatalf("expected carried manifest entries, got %d", got)
	}
	sitemap, _ := fixtures.Storage.file("dist/sitemap.xml")
	if !strings.Contains(string(sitemap), "https://example.com/posts/welcome/") {
		t.Fatalf("expected skipped page to stay in sitemap, got %s", sitemap)
	}
}

func TestBuildRebuildsWhenSourceChanges(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 16, 9, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	fixtures.Config.Incremental = true

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }
	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("initial build: %v", err)
	}

	fixtures.Markdown.updateBody("posts/welcome.md", "Welcome back, still here.")

	svc2 := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc2.now = func() time.Time { return now.Add(time.Hour) }
	result, err := svc2.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if result.PagesBuilt != 1 {
		t.Fatalf("expected 1 rebuilt page, got %d", result.PagesBuilt)
	}
	if result.PagesSkipped != 2 {
		t.Fatalf("expected 2 skipped pages, got %d", result.PagesSkipped)
	}
}

func TestBuildForceDisablesSkips(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 17, 9, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	fixtures.Config.Incremental = true

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }
	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("initial build: %v", err)
	}

	result, err := svc.Build(ctx, BuildOptions{Force: true})
	if err != nil {
		t.Fatalf("forced build: %v", err)
	}
	if result.PagesBuilt != 3 {
		t.Fatalf("expected forced rebuild of 3 pages, got %d", result.PagesBuilt)
	}
	if result.PagesSkipped != 0 {
		t.Fatalf("expected no skips under force, got %d", result.PagesSkipped)
	}
}

func TestBuildPageScopedRebuild(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 8, 4, 15, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }
	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("initial build: %v", err)
	}
	initialWrites := fixtures.Storage.writeCount()

	svc2 := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc2.now = func() time.Time { return now.Add(5 * time.Minute) }
	if err := svc2.BuildPage(ctx, "posts/welcome.md"); err != nil {
		t.Fatalf("build page: %v", err)
	}

	pageWrites := 0
	for _, write := range fixtures.Storage.writes()[initialWrites:] {
		if write.category == storage.CategoryPage {
			pageWrites++
		}
	}
	if pageWrites != 1 {
		t.Fatalf("expected 1 page rewrite, got %d", pageWrites)
	}

	// The scoped run seeds its manifest from the previous one so untouched
	// pages stay tracked.
	manifest := fixtures.Storage.manifest(t, "dist")
	sources := map[string]bool{}
	for _, entry := range manifest.Entries {
		if entry.Category == string(storage.CategoryPage) {
			sources[entry.Source] = true
		}
	}
	for _, source := range []string{"about.md", "index.md", "posts/welcome.md"} {
		if !sources[source] {
			t.Fatalf("expected manifest to keep %s, entries %v", source, sources)
		}
	}
}

func TestBuildCopiesThemeAndStaticAssets(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 9, 10, 9, 30, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)

	staticDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(staticDir, "img"), 0o755); err != nil {
		t.Fatalf("mkdir static: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "img", "logo.svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatalf("write static: %v", err)
	}

	fixtures.Config.CopyAssets = true
	fixtures.Config.StaticDir = staticDir
	fixtures.Config.Theming = ThemingConfig{Enabled: true, Theme: "aurora"}

	deps := fixtures.Dependencies()
	deps.Themes = layouts.NewThemeSelector(layouts.ThemeConfig{
		Dir:  filepath.Join("testdata", "themes"),
		Name: "aurora",
	}, nil)

	svc := NewService(fixtures.Config, deps).(*service)
	svc.now = func() time.Time { return now }

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.AssetsBuilt != 2 {
		t.Fatalf("expected 2 assets copied, got %d", result.AssetsBuilt)
	}

	css, ok := fixtures.Storage.file("dist/assets/css/site.css")
	if !ok {
		t.Fatalf("expected theme stylesheet copy, have %v", fixtures.Storage.paths())
	}
	if !strings.Contains(string(css), "font-family") {
		t.Fatalf("unexpected stylesheet content %q", css)
	}
	if _, ok := fixtures.Storage.file("dist/img/logo.svg"); !ok {
		t.Fatalf("expected static asset copy, have %v", fixtures.Storage.paths())
	}
}

func TestCleanRemovesTrackedArtifacts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)
	fixtures.Config.GenerateSitemap = true

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	svc.now = func() time.Time { return now }
	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(fixtures.Storage.paths()) == 0 {
		t.Fatal("expected artifacts before clean")
	}

	if err := svc.Clean(ctx); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if remaining := fixtures.Storage.paths(); len(remaining) != 0 {
		t.Fatalf("expected clean tree, still have %v", remaining)
	}
}

func TestCleanWithoutManifestRemovesOutputDir(t *testing.T) {
	ctx := context.Background()
	fixtures := newBuildFixtures(time.Date(2024, 10, 2, 8, 0, 0, 0, time.UTC))
	fixtures.Storage.put("dist/index.html", []byte("stale"))

	svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
	if err := svc.Clean(ctx); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if !fixtures.Storage.removedPath("dist") {
		t.Fatalf("expected output dir removal, removed %v", fixtures.Storage.removed)
	}
}

func TestGeneratorHooksInvoked(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 5, 13, 15, 0, 0, time.UTC)
	fixtures := newBuildFixtures(now)

	type recorder struct {
		mu          sync.Mutex
		beforeBuild int
		afterBuild  int
		afterPage   int
		beforeClean int
		afterClean  int
	}
	rec := &recorder{}

	deps := fixtures.Dependencies()
	deps.Hooks = Hooks{
		BeforeBuild: func(context.Context, BuildOptions) error {
			rec.mu.Lock()
			rec.beforeBuild++
			rec.mu.Unlock()
			return nil
		},
		AfterBuild: func(context.Context, BuildOptions, *BuildResult) error {
			rec.mu.Lock()
			rec.afterBuild++
			rec.mu.Unlock()
			return nil
		},
		AfterPage: func(context.Context, RenderedPage) error {
			rec.mu.Lock()
			rec.afterPage++
			rec.mu.Unlock()
			return nil
		},
		BeforeClean: func(context.Context, string) error {
			rec.mu.Lock()
			rec.beforeClean++
			rec.mu.Unlock()
			return nil
		},
		AfterClean: func(context.Context, string) error {
			rec.mu.Lock()
			rec.afterClean++
			rec.mu.Unlock()
			return nil
		},
	}

	svc := NewService(fixtures.Config, deps).(*service)
	svc.now = func() time.Time { return now }

	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := svc.BuildAssets(ctx); err != nil {
		t.Fatalf("build assets: %v", err)
	}
	if err := svc.Clean(ctx); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if err := svc.BuildPage(ctx, "about.md"); err != nil {
		t.Fatalf("build page: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.beforeBuild != 3 {
		t.Fatalf("expected beforeBuild invoked 3 times, got %d", rec.beforeBuild)
	}
	if rec.afterBuild != 3 {
		t.Fatalf("expected afterBuild invoked 3 times, got %d", rec.afterBuild)
	}
	if rec.afterPage == 0 {
		t.Fatal("expected afterPage hook to run")
	}
	if rec.beforeClean != 1 || rec.afterClean != 1 {
		t.Fatalf("expected clean hooks once, got %d/%d", rec.beforeClean, rec.afterClean)
	}
}

func TestDisabledServiceRefusesOperations(t *testing.T) {
	svc := NewDisabledService()
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
	if err := svc.Clean(context.Background()); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestBuildRequiresCollaborators(t *testing.T) {
	svc := NewService(Config{OutputDir: "dist"}, Dependencies{})
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrMarkdownRequired) {
		t.Fatalf("expected ErrMarkdownRequired, got %v", err)
	}

	fixtures := newBuildFixtures(time.Now())
	svc = NewService(fixtures.Config, Dependencies{Markdown: fixtures.Markdown})
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrLayoutsRequired) {
		t.Fatalf("expected ErrLayoutsRequired, got %v", err)
	}
}

// --- fixtures ---

type buildFixtures struct {
	Config   Config
	Markdown *stubMarkdown
	Layouts  *recordingLayouts
	Storage  *recordingProvider
}

func newBuildFixtures(now time.Time) *buildFixtures {
	markdown := newStubMarkdown()
	markdown.add(fixtureDocument{
		path:  "index.md",
		title: "Home",
		meta:  map[string]string{"permalink": "/"},
		body:  "Home",
		modAt: now.Add(-2 * time.Hour),
	})
	markdown.add(fixtureDocument{
		path:  "about.md",
		title: "About",
		meta:  map[string]string{"permalink": "/about/"},
		body:  "About",
		modAt: now.Add(-90 * time.Minute),
	})
	markdown.add(fixtureDocument{
		path:   "posts/welcome.md",
		title:  "Welcome",
		layout: "post",
		meta:   map[string]string{"path": "posts", "date": "2024-03-10"},
		body:   "Welcome",
		modAt:  now.Add(-time.Hour),
	})

	return &buildFixtures{
		Config: Config{
			OutputDir:     "dist",
			BaseURL:       "https://example.com",
			Site:          SiteMetadata{Title: "Press Site"},
			DefaultLayout: "default",
			Workers:       1,
		},
		Markdown: markdown,
		Layouts:  &recordingLayouts{known: []string{"default", "post"}},
		Storage:  newRecordingProvider(),
	}
}

func (f *buildFixtures) Dependencies() Dependencies {
	return Dependencies{
		Markdown: f.Markdown,
		Layouts:  f.Layouts,
		Storage:  f.Storage,
	}
}

type fixtureDocument struct {
	path   string
	title  string
	layout string
	meta   map[string]string
	body   string
	modAt  time.Time
}

// --- markdown stub ---

type stubMarkdown struct {
	mu       sync.Mutex
	docs     map[string]*interfaces.Document
	failures map[string]error
}

func newStubMarkdown() *stubMarkdown {
	return &stubMarkdown{
		docs:     map[string]*interfaces.Document{},
		failures: map[string]error{},
	}
}

func (m *stubMarkdown) add(fd fixtureDocument) {
	fields := []interfaces.Field{}
	if fd.layout != "" {
		fields = append(fields, interfaces.Field{Key: interfaces.KeyLayout, Value: fd.layout})
	}
	if fd.title != "" {
		fields = append(fields, interfaces.Field{Key: interfaces.KeyTitle, Value: fd.title})
	}
	keys := make([]string, 0, len(fd.meta))
	for key := range fd.meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fields = append(fields, interfaces.Field{Key: key, Value: fd.meta[key]})
	}

	sum := sha256.Sum256([]byte(fd.body))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[fd.path] = &interfaces.Document{
		FilePath:     fd.path,
		Meta:         interfaces.Metadata{Fields: fields, Present: true},
		Body:         []byte(fd.body),
		LastModified: fd.modAt,
		Checksum:     sum[:],
	}
}

func (m *stubMarkdown) updateBody(path, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.docs[path]
	if doc == nil {
		return
	}
	sum := sha256.Sum256([]byte(body))
	clone := *doc
	clone.Body = []byte(body)
	clone.Checksum = sum[:]
	m.docs[path] = &clone
}

func (m *stubMarkdown) Load(_ context.Context, path string, _ interfaces.LoadOptions) (*interfaces.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[path]; ok {
		return nil, err
	}
	doc, ok := m.docs[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return doc, nil
}

func (m *stubMarkdown) ListDocuments(_ context.Context, _ string, _ interfaces.LoadOptions) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.docs)+len(m.failures))
	for path := range m.docs {
		paths = append(paths, path)
	}
	for path := range m.failures {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *stubMarkdown) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Document, error) {
	paths, err := m.ListDocuments(ctx, dir, opts)
	if err != nil {
		return nil, err
	}
	docs := make([]*interfaces.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := m.Load(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *stubMarkdown) Render(_ context.Context, markdown []byte, _ interfaces.ParseOptions) ([]byte, []interfaces.RenderWarning, error) {
	return []byte("<p>" + string(markdown) + "</p>"), nil, nil
}

func (m *stubMarkdown) RenderDocument(_ context.Context, doc *interfaces.Document, _ interfaces.ParseOptions) ([]byte, []interfaces.RenderWarning, error) {
	title := doc.Meta.Title()
	if title == "" {
		title = doc.Source()
	}
	return []byte("<p>" + title + "</p>"), nil, nil
}

func (m *stubMarkdown) ImportFile(context.Context, string, interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	return nil, errors.New("not supported")
}

func (m *stubMarkdown) ImportDirectory(context.Context, string, interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	return nil, errors.New("not supported")
}

// --- layouts stub ---

type layoutCall struct {
	layout string
	source string
	data   any
}

type recordingLayouts struct {
	mu            sync.Mutex
	calls         []layoutCall
	known         []string
	fail          map[string]error
	delay         time.Duration
	active        atomic.Int32
	maxConcurrent atomic.Int32
}

func (r *recordingLayouts) RenderLayout(layout string, source string, data any) (string, error) {
	current := r.active.Add(1)
	for {
		max := r.maxConcurrent.Load()
		if current <= max || r.maxConcurrent.CompareAndSwap(max, current) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	defer r.active.Add(-1)

	r.mu.Lock()
	r.calls = append(r.calls, layoutCall{layout: layout, source: source, data: data})
	failErr := r.fail[layout]
	r.mu.Unlock()
	if failErr != nil {
		return "", failErr
	}

	content := ""
	if tc, ok := data.(TemplateContext); ok {
		content = string(tc.Page.Content)
	}
	return "<html><body>" + content + "</body></html>", nil
}

func (r *recordingLayouts) Has(name string) bool {
	for _, known := range r.known {
		if known == name {
			return true
		}
	}
	return false
}

func (r *recordingLayouts) Names() []string {
	return append([]string(nil), r.known...)
}

func (r *recordingLayouts) Calls() []layoutCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]layoutCall(nil), r.calls...)
}

func (r *recordingLayouts) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// --- storage stub ---

type providerWrite struct {
	path     string
	category storage.Category
}

type recordingProvider struct {
	mu      sync.Mutex
	files   map[string][]byte
	log     []providerWrite
	removed []string
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{files: map[string][]byte{}}
}

func (p *recordingProvider) EnsureDir(context.Context, string) error { return nil }

func (p *recordingProvider) WriteFile(_ context.Context, req storage.WriteRequest) error {
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[req.Path] = data
	p.log = append(p.log, providerWrite{path: req.Path, category: req.Category})
	return nil
}

func (p *recordingProvider) ReadFile(_ context.Context, path string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (p *recordingProvider) Remove(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, path)
	prefix := strings.TrimRight(path, "/") + "/"
	for existing := range p.files {
		if existing == path || strings.HasPrefix(existing, prefix) {
			delete(p.files, existing)
		}
	}
	return nil
}

func (p *recordingProvider) put(path string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[path] = data
}

func (p *recordingProvider) file(path string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.files[path]
	return data, ok
}

func (p *recordingProvider) paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.files))
	for path := range p.files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func (p *recordingProvider) writes() []providerWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]providerWrite(nil), p.log...)
}

func (p *recordingProvider) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.log)
}

func (p *recordingProvider) removedPath(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, removed := range p.removed {
		if removed == path {
			return true
		}
	}
	return false
}

func (p *recordingProvider) manifest(t *testing.T, baseDir string) *buildManifest {
	t.Helper()
	data, ok := p.file(manifestLocation(baseDir))
	if !ok {
		t.Fatalf("expected manifest under %s", baseDir)
	}
	manifest, err := parseManifest(data)
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return manifest
}
