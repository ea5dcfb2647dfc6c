package testutil

import (
	"os"
	"path/filepath"
)

// GetBinaryPath returns the path to the assetflow binary for integration tests.
// It checks multiple locations in order of preference:
// 1. Current directory (./assetflow) - where Makefile copies it
// 2. Parent directory (../assetflow)
// 3. bin directory (../bin/assetflow) - where make build creates it
// The result is absolute so commands can run inside a project workspace.
func GetBinaryPath() string {
	candidates := []string{
		"assetflow",
		filepath.Join("..", "assetflow"),
		filepath.Join("..", "bin", "assetflow"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			if abs, err := filepath.Abs(c); err == nil {
				return abs
			}
			return c
		}
	}
	return "./assetflow"
}
