package main

import (
	"context"
	"os"
	"testing"

	press "github.com/goliatone/go-press"
	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
	sitecmd "github.com/goliatone/go-press/internal/commands/site"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

type stubMarkdownService struct {
	interfaces.MarkdownService

	importCalls int
	importDir   string
	lastOptions interfaces.ImportOptions
}

func (s *stubMarkdownService) ImportDirectory(_ context.Context, dir string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	s.importCalls++
	s.importDir = dir
	s.lastOptions = opts
	return &interfaces.ImportResult{Imported: []string{"content/doc.md"}}, nil
}

func TestRunImportUsesCommandHandler(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	svc := &stubMarkdownService{}
	moduleBuilder = func(bootstrap.Options, ...press.Option) (*bootstrap.Module, error) {
		return &bootstrap.Module{
			Markdown: svc,
			Logger:   logging.NoOp(),
			Gates: sitecmd.FeatureGates{
				ImportEnabled: func() bool { return true },
			},
		}, nil
	}

	if err := runImport([]string{
		"-directory", "incoming",
		"-layout", "article",
		"-dry-run",
	}, os.Stdout); err != nil {
		t.Fatalf("runImport returned error: %v", err)
	}
	if svc.importCalls != 1 {
		t.Fatalf("expected import to be called once, got %d", svc.importCalls)
	}
	if svc.importDir != "incoming" {
		t.Fatalf("expected import directory incoming, got %s", svc.importDir)
	}
	if svc.lastOptions.DefaultLayout != "article" || !svc.lastOptions.DryRun {
		t.Fatalf("expected layout and dry-run to propagate, got %+v", svc.lastOptions)
	}
}

func TestRunImportRequiresDirectory(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	moduleBuilder = func(bootstrap.Options, ...press.Option) (*bootstrap.Module, error) {
		return &bootstrap.Module{
			Markdown: &stubMarkdownService{},
			Logger:   logging.NoOp(),
			Gates: sitecmd.FeatureGates{
				ImportEnabled: func() bool { return true },
			},
		}, nil
	}

	if err := runImport(nil, os.Stdout); err == nil {
		t.Fatal("expected validation error for missing directory")
	}
}
