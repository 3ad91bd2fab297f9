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
	if err := runImport(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("press import: %v", err)
	}
}

func runImport(args []string, out *os.File) error {
	fs := flag.NewFlagSet("press-import", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to press.yaml (defaults to the working directory)")
	directory := fs.String("directory", "", "Directory holding the foreign Markdown tree (required)")
	targetDir := fs.String("target-dir", "", "Destination directory (defaults to the content root)")
	layout := fs.String("layout", "", "Layout recorded on documents that declare none")
	overwrite := fs.Bool("overwrite", false, "Replace documents that already exist in the target")
	dryRun := fs.Bool("dry-run", false, "Preview the normalisation without writing documents")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{ConfigPath: *configPath})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	handler := sitecmd.NewImportDirectoryHandler(module.Markdown, module.Logger, module.Gates)
	cmd := sitecmd.ImportDirectoryCommand{
		Directory:     *directory,
		TargetDir:     *targetDir,
		DefaultLayout: *layout,
		Overwrite:     *overwrite,
		DryRun:        *dryRun,
		ResultCallback: func(envelope sitecmd.ImportEnvelope) {
			if envelope.Result == nil {
				return
			}
			result := envelope.Result
			fmt.Fprintf(out, "imported: %d, skipped: %d, errors: %d\n",
				len(result.Imported), len(result.Skipped), len(result.Errors))
			for _, path := range result.Imported {
				fmt.Fprintf(out, "  %s\n", path)
			}
		},
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute import command: %w", err)
	}
	return nil
}
