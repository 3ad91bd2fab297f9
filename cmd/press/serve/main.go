package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-press/cmd/press/internal/bootstrap"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runServe(os.Args[1:]); err != nil {
		log.Fatalf("press serve: %v", err)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("press-serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to press.yaml (defaults to the working directory)")
	host := fs.String("host", "", "Override the dev server host")
	port := fs.Int("port", 0, "Override the dev server port")
	noReload := fs.Bool("no-livereload", false, "Disable livereload script injection")
	noWatch := fs.Bool("no-watch", false, "Disable rebuild-on-change")
	logLevel := fs.String("log-level", "", "Override the logging level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	liveReload := !*noReload
	watch := !*noWatch
	module, err := moduleBuilder(bootstrap.Options{
		ConfigPath: *configPath,
		LogLevel:   *logLevel,
		Serve:      true,
		Host:       *host,
		Port:       *port,
		LiveReload: &liveReload,
		Watch:      &watch,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := module.Engine.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
