package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupProject writes files into a fresh project directory and returns its
// path. The directory is removed when the test ends unless keep is set.
func SetupProject(t *testing.T, files map[string][]byte, keep bool) string {
	t.Helper()

	var dir string
	if keep {
		var err error
		dir, err = os.MkdirTemp("", "assetflow-it-*")
		require.NoError(t, err, "failed to create project directory")
		t.Logf("Project workspace preserved in: %s", dir)
	} else {
		dir = t.TempDir()
	}

	for name, contents := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755), "failed to create %s", filepath.Dir(p))
		require.NoError(t, os.WriteFile(p, contents, 0o644), "failed to write %s", name)
	}
	return dir
}

// PNG returns an encoded w x h image filled with a single color.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
