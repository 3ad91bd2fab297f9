package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	sitecmd "github.com/goliatone/go-press/internal/commands/site"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runBuild(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("press build: %v", err)
	}
}

func runBuild(args []string, out *os.File) error {
	fs := flag.NewFlagSet("press-build", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to press.yaml (defaults to the working directory)")
	contentDir := fs.String("content-dir", "", "Override the content directory")
	outputDir := fs.String("output-dir", "", "Override the build output directory")
	layoutDirs := fs.String("layout-dirs", "", "Comma separated layout directories")
	baseURL := fs.String("base-url", "", "Override the site base URL")
	workers := fs.Int("workers", 0, "Concurrent render workers (0 uses the CPU count)")
	paths := fs.String("paths", "", "Comma separated document paths to rebuild (empty builds the whole site)")
	force := fs.Bool("force", false, "Disable incremental reuse for this run")
	dryRun := fs.Bool("dry-run", false, "Render without writing artifacts")
	assetsOnly := fs.Bool("assets-only", false, "Copy static and theme assets without rendering pages")
	clean := fs.Bool("clean", false, "Remove tracked artifacts instead of building")
	logLevel := fs.String("log-level", "", "Override the logging level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		ConfigPath: *configPath,
		ContentDir: *contentDir,
		OutputDir:  *outputDir,
		LayoutDirs: bootstrap.SplitList(*layoutDirs),
		BaseURL:    *baseURL,
		Workers:    *workers,
		LogLevel:   *logLevel,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	ctx := context.Background()

	if *clean {
		handler := sitecmd.NewCleanSiteHandler(module.Generator, module.Logger, module.Gates)
		if err := handler.Execute(ctx, sitecmd.CleanSiteCommand{}); err != nil {
			return fmt.Errorf("execute clean command: %w", err)
		}
		fmt.Fprintln(out, "site artifacts removed")
		return nil
	}

	handler := sitecmd.NewBuildSiteHandler(module.Generator, module.Logger, module.Gates)
	cmd := sitecmd.BuildSiteCommand{
		Paths:      bootstrap.SplitList(*paths),
		Force:      *force,
		DryRun:     *dryRun,
		AssetsOnly: *assetsOnly,
		ResultCallback: func(envelope sitecmd.BuildEnvelope) {
			if envelope.Result == nil {
				return
			}
			result := envelope.Result
			fmt.Fprintf(out, "pages built: %d, skipped: %d, assets: %d, errors: %d, duration: %s\n",
				result.PagesBuilt, result.PagesSkipped, result.AssetsBuilt, len(result.Errors), result.Duration)
		},
	}
	if err := handler.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute build command: %w", err)
	}
	return nil
}
