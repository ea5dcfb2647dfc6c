// Package cleaner removes build output directories.
package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/stage"
)

// Message is announced after a successful clean.
const Message = "Dist & stylesheets directories purged."

// Clean recursively removes dirs, given relative to root. Directories that
// do not exist are skipped, so cleaning twice is the same as cleaning once.
// Paths resolving to root itself or outside of it are refused.
func Clean(ctx context.Context, root string, dirs ...string) error {
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		full, err := resolve(root, dir)
		if err != nil {
			return err
		}

		if _, err := os.Lstat(full); os.IsNotExist(err) {
			logger.Op.WithFields(map[string]interface{}{"dir": dir}).Debug("Nothing to remove")
			continue
		}
		if err := os.RemoveAll(full); err != nil {
			return &aferrors.IOError{Op: "remove", Path: dir, Err: eris.Wrapf(err, "failed to remove %s", dir)}
		}
		logger.User.Deletef("Removed %s", dir)
	}
	return nil
}

// Stage wraps Clean as a pipeline stage named "clean".
func Stage(root string, dirs []string) stage.Stage {
	return &stage.Func{
		Meta: stage.Meta{Label: "clean", Message: Message},
		Fn: func(ctx context.Context) error {
			return Clean(ctx, root, dirs...)
		},
	}
}

func resolve(root, dir string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(dir))
	if filepath.IsAbs(rel) || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &aferrors.IOError{Op: "remove", Path: dir, Err: eris.New("refusing to remove a path outside the project")}
	}
	return filepath.Join(root, rel), nil
}
