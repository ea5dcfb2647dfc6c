package stage

import (
	"context"
	"errors"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/notify"
)

// Stage is one file pipeline of a task.
type Stage interface {
	Name() string
	// Notice is the completion message shown when the stage succeeds.
	Notice() string
	Run(ctx context.Context) error
}

// Meta names a stage and carries its completion message.
type Meta struct {
	Label   string
	Message string
}

func (m Meta) Name() string { return m.Label }

func (m Meta) Notice() string { return m.Message }

// Func adapts a function to the Stage interface.
type Func struct {
	Meta
	Fn func(ctx context.Context) error
}

func (f *Func) Run(ctx context.Context) error { return f.Fn(ctx) }

// Trap runs s inside the stage error boundary. Compile, transform and IO
// failures are announced through n and returned as a StageError; the
// caller keeps running. Other errors pass through untouched.
func Trap(ctx context.Context, n notify.Notifier, s Stage) error {
	logger.Debug("Running stage", logger.WithStage(s.Name()))

	err := s.Run(ctx)
	if err == nil {
		if msg := s.Notice(); msg != "" {
			n.Success(s.Name(), msg)
		}
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	if !trappable(err) {
		return err
	}

	n.Failure(s.Name(), err)
	return &aferrors.StageError{Stage: s.Name(), Err: err}
}

func trappable(err error) bool {
	var compileErr *aferrors.CompileError
	var transformErr *aferrors.TransformError
	var ioErr *aferrors.IOError
	return errors.As(err, &compileErr) || errors.As(err, &transformErr) || errors.As(err, &ioErr)
}

// Join runs the stages concurrently, each inside Trap, and waits for all
// of them. It returns the first failure; a failing stage does not cancel
// the others.
func Join(ctx context.Context, n notify.Notifier, stages ...Stage) error {
	var g errgroup.Group
	for _, s := range stages {
		g.Go(func() error {
			return Trap(ctx, n, s)
		})
	}
	return g.Wait()
}

// MinName inserts ".min" before the extension of name.
func MinName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + ".min" + ext
}

func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

// rootFrom returns the relative path leading from dir back to the project
// root, for example "../.." for "dist/js".
func rootFrom(dir string) string {
	dir = path.Clean(dir)
	if dir == "." || dir == "" {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", strings.Count(dir, "/")+1), "/")
}
