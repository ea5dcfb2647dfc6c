package stage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, contents := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	}
}

func readFile(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/js/b.js":             "b",
		"src/js/a.js":             "a",
		"src/js/pages/home.js":    "home",
		"src/js/vendor/jq.min.js": "jq",
		"vendor/z.js":             "z",
		"vendor/y.js":             "y",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src/js/empty.js"), 0o755))

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "glob is sorted and skips directories",
			patterns: []string{"src/js/**/*.js"},
			want:     []string{"src/js/a.js", "src/js/b.js", "src/js/pages/home.js", "src/js/vendor/jq.min.js"},
		},
		{
			name:     "explicit paths keep their order",
			patterns: []string{"vendor/z.js", "./vendor/y.js", "src/js/a.js"},
			want:     []string{"vendor/z.js", "vendor/y.js", "src/js/a.js"},
		},
		{
			name:     "negated pattern removes matches",
			patterns: []string{"src/js/**/*.js", "!src/js/vendor/**"},
			want:     []string{"src/js/a.js", "src/js/b.js", "src/js/pages/home.js"},
		},
		{
			name:     "duplicates are dropped",
			patterns: []string{"src/js/a.js", "src/js/*.js"},
			want:     []string{"src/js/a.js", "src/js/b.js"},
		},
		{
			name:     "glob without matches",
			patterns: []string{"src/fonts/**/*"},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Discover(root, tt.patterns...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, append([]string{}, set.Paths()...))
		})
	}
}

func TestDiscoverBaseAndRel(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/js/pages/about/team.js":                         "team",
		"node_modules/owl.carousel/dist/owl.carousel.min.js": "owl",
	})

	set, err := Discover(root, "src/js/pages/**/*.js", "node_modules/owl.carousel/dist/owl.carousel.min.js")
	require.NoError(t, err)
	require.Len(t, set, 2)

	assert.Equal(t, "src/js/pages", set[0].Base)
	assert.Equal(t, "about/team.js", set[0].Rel())
	assert.Equal(t, "node_modules/owl.carousel/dist", set[1].Base)
	assert.Equal(t, "owl.carousel.min.js", set[1].Rel())
}

func TestDiscoverMissingExplicitPath(t *testing.T) {
	root := t.TempDir()

	_, err := Discover(root, "node_modules/lethargy/lethargy.min.js")
	require.Error(t, err)

	var ioErr *aferrors.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "node_modules/lethargy/lethargy.min.js", ioErr.Path)
}

func TestPartitionCoversEveryFileOnce(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/scss/main.scss":              "a{}",
		"src/scss/_vars.scss":             "$x: 1;",
		"src/scss/vendor/slick.scss":      "b{}",
		"src/scss/vendor/fonts/x.woff":    "font",
		"src/scss/vendor/ajax-loader.gif": "gif",
	})

	all, err := Discover(root, "src/scss/**/*")
	require.NoError(t, err)

	compiled, copied := Partition(all, MatchAny("src/scss/**/*.scss"))

	assert.ElementsMatch(t, []string{"src/scss/_vars.scss", "src/scss/main.scss", "src/scss/vendor/slick.scss"}, compiled.Paths())
	assert.ElementsMatch(t, []string{"src/scss/vendor/ajax-loader.gif", "src/scss/vendor/fonts/x.woff"}, copied.Paths())

	union := append(append([]string{}, compiled.Paths()...), copied.Paths()...)
	assert.ElementsMatch(t, all.Paths(), union)
	for _, p := range copied.Paths() {
		assert.NotContains(t, compiled.Paths(), p)
	}

	assert.Equal(t, copied, Exclude(all, MatchAny("src/scss/**/*.scss")))
}

func TestIsPartial(t *testing.T) {
	assert.True(t, IsPartial(File{Path: "src/scss/_lib.scss"}))
	assert.False(t, IsPartial(File{Path: "src/scss/main.scss"}))
	assert.False(t, IsPartial(File{Path: "src/_dir/main.scss"}))
}
