package generator

import (
	"fmt"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// ThemingConfig controls how the generator resolves the active theme.
type ThemingConfig struct {
	Enabled           bool
	Theme             string
	Variant           string
	CSSVariablePrefix string
	PartialFallbacks  map[string]string
}

// themeSelector is the slice of layouts.ThemeSelector the generator needs.
type themeSelector interface {
	Selection(name, variant string) (*gotheme.Selection, error)
	ThemePath(name string) string
}

func (s *service) loadSelection() (*gotheme.Selection, error) {
	if !s.cfg.Theming.Enabled || s.deps.Themes == nil {
		return nil, nil
	}
	selection, err := s.deps.Themes.Selection(s.cfg.Theming.Theme, s.cfg.Theming.Variant)
	if err != nil {
		return nil, fmt.Errorf("generator: resolve theme: %w", err)
	}
	return selection, nil
}

func (s *service) themeRoot(selection *gotheme.Selection) string {
	if selection == nil || s.deps.Themes == nil {
		return ""
	}
	name := strings.TrimSpace(selection.Theme)
	if name == "" {
		return ""
	}
	return s.deps.Themes.ThemePath(name)
}
