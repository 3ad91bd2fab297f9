package generator

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// AssetResolver opens asset files below a root directory for copying into the
// published tree.
type AssetResolver interface {
	Open(ctx context.Context, root, asset string) (io.ReadCloser, error)
}

type fsAssetResolver struct{}

func (fsAssetResolver) Open(_ context.Context, root, asset string) (io.ReadCloser, error) {
	root = filepath.Clean(strings.TrimSpace(root))
	if root == "" || root == "." {
		return nil, fmt.Errorf("generator: asset root required")
	}
	joined := filepath.Join(root, filepath.FromSlash(strings.TrimSpace(asset)))
	if !strings.HasPrefix(filepath.Clean(joined), root+string(filepath.Separator)) {
		return nil, fmt.Errorf("generator: asset %q escapes root", asset)
	}
	return os.Open(joined)
}

// collectThemeAssets lists the manifest-declared asset files for the active
// selection, variant overrides applied.
func collectThemeAssets(selection *gotheme.Selection) []string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}

	assets := selection.Manifest.Assets.Files
	if variant := strings.TrimSpace(selection.Variant); variant != "" {
		if v, ok := selection.Manifest.Variants[variant]; ok && len(v.Assets.Files) > 0 {
			merged := make(map[string]string, len(selection.Manifest.Assets.Files)+len(v.Assets.Files))
			for key, file := range selection.Manifest.Assets.Files {
				merged[key] = file
			}
			for key, file := range v.Assets.Files {
				merged[key] = file
			}
			assets = merged
		}
	}

	seen := map[string]struct{}{}
	var out []string
	for _, asset := range assets {
		asset = strings.TrimPrefix(strings.TrimSpace(asset), "/")
		if asset == "" {
			continue
		}
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, filepath.ToSlash(asset))
	}
	return out
}

// collectStaticAssets walks the site static dir and returns the relative
// paths to copy. A missing dir is not an error; there is simply nothing to
// copy.
func collectStaticAssets(dir string) ([]string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("generator: inspect static dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("generator: static path %s is not a directory", dir)
	}

	var assets []string
	err = filepath.WalkDir(dir, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, current)
		if relErr != nil {
			return relErr
		}
		assets = append(assets, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generator: walk static dir %s: %w", dir, err)
	}
	return assets, nil
}

func detectAssetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "woff":
		return "font/woff"
	case "woff2":
		return "font/woff2"
	case "txt":
		return "text/plain"
	case "xml":
		return "application/xml"
	case "html", "htm":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}
