package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

// Validate verifies that all config fields have valid values
func (c *Config) Validate() error {
	if c.MaxParallel < 0 {
		return configError("max_parallel", "must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return configError("watch.debounce", "must not be negative")
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return configError("images.jpeg_quality", fmt.Sprintf("%d is outside 1..100", c.Images.JPEGQuality))
	}
	if c.Precompress.Quality < 0 || c.Precompress.Quality > 11 {
		return configError("precompress.quality", fmt.Sprintf("%d is outside 0..11", c.Precompress.Quality))
	}

	names := map[string]string{
		"styles.bundle":  c.Styles.Bundle,
		"scripts.bundle": c.Scripts.Bundle,
		"vendor.bundle":  c.Vendor.Bundle,
	}
	for field, name := range names {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return configError(field, fmt.Sprintf("%q must be a plain file name", name))
		}
	}

	dests := map[string]string{
		"styles.intermediate":     c.Styles.Intermediate,
		"styles.dest":             c.Styles.Dest,
		"scripts.dest":            c.Scripts.Dest,
		"scripts.sourcemaps":      c.Scripts.Sourcemaps,
		"scripts.pages.dest":      c.Scripts.Pages.Dest,
		"scripts.components.dest": c.Scripts.Components.Dest,
		"scripts.interior.dest":   c.Scripts.Interior.Dest,
		"vendor.dest":             c.Vendor.Dest,
		"images.dest":             c.Images.Dest,
		"fonts.dest":              c.Fonts.Dest,
		"pages.dest":              c.Pages.Dest,
	}
	for field, dir := range dests {
		if err := checkDir(field, dir); err != nil {
			return err
		}
	}
	for i, dir := range c.Clean.Dirs {
		if err := checkDir(fmt.Sprintf("clean.dirs[%d]", i), dir); err != nil {
			return err
		}
	}

	patterns := map[string][]string{
		"styles.sources":             c.Styles.Sources,
		"styles.assets":              c.Styles.Assets,
		"scripts.sources":            c.Scripts.Sources,
		"scripts.exclude":            c.Scripts.Exclude,
		"scripts.pages.sources":      c.Scripts.Pages.Sources,
		"scripts.components.sources": c.Scripts.Components.Sources,
		"scripts.interior.sources":   c.Scripts.Interior.Sources,
		"images.sources":             c.Images.Sources,
		"fonts.sources":              c.Fonts.Sources,
		"pages.sources":              c.Pages.Sources,
	}
	for field, list := range patterns {
		for _, p := range list {
			if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
				return configError(field, fmt.Sprintf("invalid pattern %q", p))
			}
		}
	}

	for i, rule := range c.Watch.Rules {
		field := fmt.Sprintf("watch.rules[%d]", i)
		if rule.Pattern == "" || !doublestar.ValidatePattern(filepath.ToSlash(rule.Pattern)) {
			return configError(field, fmt.Sprintf("invalid pattern %q", rule.Pattern))
		}
		if len(rule.Tasks) == 0 {
			return configError(field, "at least one task is required")
		}
	}

	return nil
}

// checkDir rejects output directories that would point at, or outside, the
// project root. The cleaner removes them recursively.
func checkDir(field, dir string) error {
	if dir == "" {
		return configError(field, "must not be empty")
	}
	clean := filepath.Clean(dir)
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return configError(field, fmt.Sprintf("%q must be a directory inside the project root", dir))
	}
	return nil
}

func configError(field, reason string) error {
	return &aferrors.ConfigError{Field: field, Reason: reason}
}
