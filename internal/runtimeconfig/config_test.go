package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-press/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestValidateRequiresContentDirForGenerator(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = "  "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired, got %v", err)
	}
}

func TestValidateRequiresOutputDirForGenerator(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Build.OutputDir = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrOutputDirRequired) {
		t.Fatalf("expected ErrOutputDirRequired, got %v", err)
	}
}

func TestValidateAllowsEmptyDirsWhenGeneratorDisabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Generator = false
	cfg.Content.Dir = ""
	cfg.Build.OutputDir = ""
	cfg.Layouts.Dirs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestValidateRequiresLayoutDirs(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Layouts.Dirs = []string{" ", ""}

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLayoutDirRequired) {
		t.Fatalf("expected ErrLayoutDirRequired, got %v", err)
	}
}

func TestValidateRequiresThemeNameWhenThemingEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Theming = true

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrThemeNameRequired) {
		t.Fatalf("expected ErrThemeNameRequired, got %v", err)
	}

	cfg.Theme.Name = "minimal"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestValidateRejectsNegativeWorkers(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Build.Workers = -1

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrWorkersInvalid) {
		t.Fatalf("expected ErrWorkersInvalid, got %v", err)
	}
}

func TestValidateChecksServerPortWhenServerEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Server.Port = 0

	// Port is ignored while the server feature stays off.
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}

	cfg.Features.Server = true
	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrServerPortInvalid) {
		t.Fatalf("expected ErrServerPortInvalid, got %v", err)
	}
}

func TestValidateRejectsNegativeDebounce(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Watch.Debounce = -time.Second

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrWatchDebounceInvalid) {
		t.Fatalf("expected ErrWatchDebounceInvalid, got %v", err)
	}
}

func TestValidateLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}

	cfg.Logging.Provider = "syslog"
	err = cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}

	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"
	err = cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}

	cfg.Logging.Format = "json"
	cfg.Logging.Level = "verbose"
	err = cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}

	cfg.Logging.Level = "debug"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}
