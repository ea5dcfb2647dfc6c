package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "src/stylesheets", cfg.Styles.Intermediate)
	assert.Equal(t, "main.css", cfg.Styles.Bundle)
	assert.Equal(t, "dist/stylesheets", cfg.Styles.Dest)
	assert.Equal(t, []string{"src/scss/**/*.scss"}, cfg.Styles.Sources)
	assert.Equal(t, []string{"src/js/vendor/**"}, cfg.Scripts.Exclude)
	assert.Equal(t, "../../src/js", cfg.Scripts.SourceRoot)
	assert.Equal(t, "dist/js/interior-pages", cfg.Scripts.Interior.Dest)
	assert.Equal(t, "dist/js/vendor", cfg.Vendor.Dest)
	assert.False(t, cfg.Vendor.Minify)
	assert.Len(t, cfg.Vendor.Files, 3)
	assert.Equal(t, "dist/fonts", cfg.Fonts.Dest)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, DefaultWatchRules(), cfg.Watch.Rules)
	assert.Equal(t, []string{"dist", "src/stylesheets"}, cfg.Clean.Dirs)
	assert.False(t, cfg.Precompress.Enabled)
	assert.True(t, cfg.Notify.Bell)
	assert.Equal(t, ".", cfg.Root())
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root())
	assert.Empty(t, cfg.File())
	assert.Equal(t, Default().Styles, cfg.Styles)
}

func TestLoadYAMLFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "assetflow.yaml"), `
max_parallel: 2
vendor:
  minify: true
  files:
    - a.js
    - b.js
watch:
  debounce: 50ms
  rules:
    - pattern: "src/scss/**/*.scss"
      tasks: [scss]
`)

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "assetflow.yaml"), cfg.File())
	assert.Equal(t, 2, cfg.MaxParallel)
	assert.True(t, cfg.Vendor.Minify)
	assert.Equal(t, []string{"a.js", "b.js"}, cfg.Vendor.Files)
	assert.Equal(t, "vendor.js", cfg.Vendor.Bundle, "keys absent from the file keep defaults")
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
	require.Len(t, cfg.Watch.Rules, 1)
	assert.Equal(t, []string{"scss"}, cfg.Watch.Rules[0].Tasks)
}

func TestLoadTOMLFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "build.toml"), `
[styles]
bundle = "site.css"
include_paths = ["vendor/scss"]

[images]
jpeg_quality = 70
`)

	cfg, err := Load(root, "build.toml")
	require.NoError(t, err)

	assert.Equal(t, "site.css", cfg.Styles.Bundle)
	assert.Equal(t, []string{"vendor/scss"}, cfg.Styles.IncludePaths)
	assert.Equal(t, 70, cfg.Images.JPEGQuality)
	assert.Equal(t, "dist/stylesheets", cfg.Styles.Dest)
}

func TestEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "assetflow.yml"), "max_parallel: 2\n")
	t.Setenv("ASSETFLOW_MAX_PARALLEL", "1")
	t.Setenv("ASSETFLOW_SCRIPTS_TARGET", "es2017")

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.MaxParallel)
	assert.Equal(t, "es2017", cfg.Scripts.Target)
}

func TestLoadErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "settings.json"), "{}")
	writeFile(t, filepath.Join(root, "broken.yaml"), "styles: [unterminated\n")

	tests := []struct {
		name string
		file string
	}{
		{"missing file", "nope.yaml"},
		{"unsupported extension", "settings.json"},
		{"malformed yaml", "broken.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(root, tt.file)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative parallelism", func(c *Config) { c.MaxParallel = -1 }, "max_parallel"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, "watch.debounce"},
		{"jpeg quality", func(c *Config) { c.Images.JPEGQuality = 0 }, "images.jpeg_quality"},
		{"bundle with directory", func(c *Config) { c.Styles.Bundle = "css/main.css" }, "styles.bundle"},
		{"clean project root", func(c *Config) { c.Clean.Dirs = []string{"."} }, "clean.dirs[0]"},
		{"dest outside root", func(c *Config) { c.Fonts.Dest = "../fonts" }, "fonts.dest"},
		{"invalid pattern", func(c *Config) { c.Pages.Sources = []string{"src/[pages"} }, "pages.sources"},
		{"rule without tasks", func(c *Config) { c.Watch.Rules = []WatchRule{{Pattern: "src/**"}} }, "watch.rules[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *aferrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestYAMLDump(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "styles")
	assert.Contains(t, decoded, "watch")
	assert.Contains(t, string(out), "debounce: 200ms")
}

func TestWithRoot(t *testing.T) {
	cfg := Default()
	other := cfg.WithRoot("/tmp/site")

	assert.Equal(t, "/tmp/site", other.Root())
	assert.Equal(t, ".", cfg.Root())
}
