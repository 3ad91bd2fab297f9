package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// NewFilesystem returns a Provider that writes artifacts under root. The base
// argument, when set, should match the logical output prefix callers use
// (e.g. the generator OutputDir) so duplicated prefixes are trimmed before
// paths are resolved against root.
func NewFilesystem(root, base string) Provider {
	base = filepath.ToSlash(filepath.Clean(base))
	if base == "." {
		base = ""
	}
	return &filesystem{root: root, base: base}
}

type filesystem struct {
	root string
	base string
}

func (s *filesystem) EnsureDir(_ context.Context, path string) error {
	target := s.normalize(path)
	if target == "" || target == "." {
		return os.MkdirAll(s.root, 0o755)
	}
	return os.MkdirAll(s.abs(target), 0o755)
}

func (s *filesystem) WriteFile(_ context.Context, req WriteRequest) error {
	if req.Content == nil {
		return fmt.Errorf("storage: write requires content reader")
	}
	target := s.normalize(req.Path)
	if target == "" || target == "." {
		return fmt.Errorf("storage: write requires path")
	}
	full := s.abs(target)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	file, err := os.Create(full)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := io.Copy(file, req.Content); err != nil {
		return err
	}
	return nil
}

func (s *filesystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	target := s.normalize(path)
	return os.ReadFile(s.abs(target))
}

func (s *filesystem) Remove(_ context.Context, path string) error {
	target := s.normalize(path)
	err := os.RemoveAll(s.abs(target))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *filesystem) abs(rel string) string {
	if rel == "" {
		return s.root
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// normalize strips the logical base prefix so callers can address artifacts
// either relative to root or through the base-qualified paths the generator
// produces. Comparison happens on the rootless form of both sides: the
// generator trims the leading slash off an absolute output dir before joining
// paths, so an absolute base must still match.
func (s *filesystem) normalize(path string) string {
	path = filepath.ToSlash(filepath.Clean(path))
	if path == "." {
		return ""
	}
	path = strings.TrimPrefix(path, "/")
	base := strings.TrimPrefix(s.base, "/")
	if base == "" {
		return path
	}
	if path == base {
		return ""
	}
	return strings.TrimPrefix(path, base+"/")
}
