package layouts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ThemeManifestFile is the manifest name expected inside each theme
// directory.
const ThemeManifestFile = "theme.json"

// ErrManifestInvalid indicates a theme manifest failed schema validation.
var ErrManifestInvalid = errors.New("layouts: theme manifest invalid")

// ThemeConfig configures theme resolution.
type ThemeConfig struct {
	// Dir is the root directory holding one subdirectory per theme.
	Dir string
	// Name selects the active theme. Empty disables theming.
	Name string
	// Variant selects a manifest variant, when the theme defines any.
	Variant string
	// CSSVariablePrefix prefixes generated CSS custom property names.
	CSSVariablePrefix string
	// PartialFallbacks maps partial names to fallback template paths used
	// when the selected variant does not override them.
	PartialFallbacks map[string]string
}

// ThemeManifestJSONSchema documents the manifest shape accepted by the
// engine. Unknown sections are allowed so themes can carry extra metadata.
const ThemeManifestJSONSchema = `
{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "ThemeManifest",
  "type": "object",
  "required": ["name", "version"],
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "version": {
      "type": "string",
      "minLength": 1
    },
    "description": {
      "type": "string"
    },
    "author": {
      "type": "string"
    },
    "tokens": {
      "type": "object",
      "additionalProperties": {
        "type": "string"
      }
    },
    "templates": {
      "type": "object",
      "additionalProperties": {
        "type": "string"
      }
    },
    "partials": {
      "type": "object",
      "additionalProperties": {
        "type": "string"
      }
    },
    "assets": {
      "type": "object",
      "properties": {
        "files": {
          "type": "object",
          "additionalProperties": {
            "type": "string"
          }
        }
      },
      "additionalProperties": true
    },
    "variants": {
      "type": "object"
    }
  },
  "additionalProperties": true
}
`

// ManifestIssue captures a single manifest validation failure.
type ManifestIssue struct {
	Location string
	Message  string
}

// ManifestValidationError reports why a theme manifest was rejected.
type ManifestValidationError struct {
	Path   string
	Issues []ManifestIssue
	Cause  error
}

func (e *ManifestValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "layouts: theme manifest %s invalid", e.Path)
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			fmt.Fprintf(&sb, ": %v", e.Cause)
		}
		return sb.String()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	fmt.Fprintf(&sb, ": %s", strings.Join(parts, "; "))
	return sb.String()
}

func (e *ManifestValidationError) Unwrap() error {
	return ErrManifestInvalid
}

var (
	themeSchemaOnce     sync.Once
	themeSchemaCompiled *jsonschema.Schema
	themeSchemaErr      error
)

func compiledThemeSchema() (*jsonschema.Schema, error) {
	themeSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("theme.schema.json", strings.NewReader(ThemeManifestJSONSchema)); err != nil {
			themeSchemaErr = err
			return
		}
		themeSchemaCompiled, themeSchemaErr = compiler.Compile("theme.schema.json")
	})
	return themeSchemaCompiled, themeSchemaErr
}

// ValidateThemeManifest checks raw manifest JSON against the schema.
func ValidateThemeManifest(path string, data []byte) error {
	schema, err := compiledThemeSchema()
	if err != nil {
		return fmt.Errorf("layouts: compile theme schema: %w", err)
	}

	var payload any
	if err := json.Unmarshal(bytes.TrimSpace(data), &payload); err != nil {
		return &ManifestValidationError{Path: path, Cause: err}
	}

	if err := schema.Validate(payload); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &ManifestValidationError{
				Path:   path,
				Issues: collectManifestIssues(validationErr),
				Cause:  err,
			}
		}
		return &ManifestValidationError{Path: path, Cause: err}
	}
	return nil
}

func collectManifestIssues(err *jsonschema.ValidationError) []ManifestIssue {
	if err == nil {
		return nil
	}
	issues := []ManifestIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ManifestIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

// ManifestLoader loads a theme manifest from a theme directory.
type ManifestLoader interface {
	Load(themePath string) (*gotheme.Manifest, error)
}

type fsManifestLoader struct{}

func (fsManifestLoader) Load(themePath string) (*gotheme.Manifest, error) {
	cleaned := filepath.Clean(strings.TrimSpace(themePath))
	if cleaned == "" {
		return nil, fmt.Errorf("layouts: theme path required")
	}

	manifestPath := filepath.Join(cleaned, ThemeManifestFile)
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("layouts: read theme manifest %s: %w", manifestPath, err)
	}
	if err := ValidateThemeManifest(manifestPath, raw); err != nil {
		return nil, err
	}

	return gotheme.LoadDir(os.DirFS(cleaned), ".")
}

// ThemeSelector resolves go-theme selections for configured themes, loading
// and validating each manifest once.
type ThemeSelector struct {
	registry       *gotheme.MemoryRegistry
	loader         ManifestLoader
	dir            string
	defaultTheme   string
	defaultVariant string

	mu        sync.Mutex
	manifests map[string]*gotheme.Manifest
}

// NewThemeSelector builds a selector rooted at cfg.Dir. A nil loader reads
// manifests from the filesystem.
func NewThemeSelector(cfg ThemeConfig, loader ManifestLoader) *ThemeSelector {
	if loader == nil {
		loader = fsManifestLoader{}
	}
	return &ThemeSelector{
		registry:       gotheme.NewRegistry(),
		loader:         loader,
		dir:            strings.TrimSpace(cfg.Dir),
		defaultTheme:   strings.TrimSpace(cfg.Name),
		defaultVariant: strings.TrimSpace(cfg.Variant),
		manifests:      map[string]*gotheme.Manifest{},
	}
}

// Selection resolves the named theme and variant. An empty name falls back to
// the configured default; when no default exists the selection is nil.
func (s *ThemeSelector) Selection(name, variant string) (*gotheme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
	}
	if name == "" {
		return nil, nil
	}

	if _, err := s.ensureManifest(name); err != nil {
		return nil, err
	}

	selector := gotheme.Selector{
		Registry:       s.registry,
		DefaultTheme:   s.defaultTheme,
		DefaultVariant: s.defaultVariant,
	}

	resolvedVariant := strings.TrimSpace(variant)
	if resolvedVariant == "" {
		resolvedVariant = s.defaultVariant
	}

	selection, err := selector.Select(name, resolvedVariant)
	if err != nil {
		return nil, fmt.Errorf("layouts: select theme %s: %w", name, err)
	}
	return selection, nil
}

// ThemePath returns the directory the named theme lives in.
func (s *ThemeSelector) ThemePath(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
	}
	if name == "" || s.dir == "" {
		return ""
	}
	return filepath.Join(s.dir, name)
}

// LayoutDir returns the layout root the named theme contributes, or empty
// when the theme ships no layouts.
func (s *ThemeSelector) LayoutDir(name string) string {
	themePath := s.ThemePath(name)
	if themePath == "" {
		return ""
	}
	dir := filepath.Join(themePath, "layouts")
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ""
	}
	return dir
}

func (s *ThemeSelector) ensureManifest(name string) (*gotheme.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manifest, ok := s.manifests[name]; ok {
		return manifest, nil
	}

	themePath := s.ThemePath(name)
	if themePath == "" {
		return nil, fmt.Errorf("layouts: theme directory required for %q", name)
	}

	manifest, err := s.loader.Load(themePath)
	if err != nil {
		return nil, err
	}

	normalized := *manifest
	if strings.TrimSpace(normalized.Name) == "" {
		normalized.Name = name
	}
	if err := s.registry.Register(&normalized); err != nil {
		return nil, fmt.Errorf("layouts: register theme manifest: %w", err)
	}
	s.manifests[name] = &normalized
	return &normalized, nil
}
