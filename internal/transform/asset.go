// Package transform adapts external file transformers (style compiler,
// vendor prefixer, minifiers, script transpiler, image compressors) to a
// single Transformer interface over in-memory assets.
package transform

import (
	"context"
	"errors"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

// Asset is a file travelling through a stage. Path is relative to the
// project root and names the source the contents were produced from.
type Asset struct {
	Path     string
	Contents []byte
	// SourceMap is a version 3 source map document for Contents, or nil
	// when the stage does not track source maps.
	SourceMap []byte
}

// Clone returns a deep copy of the asset.
func (a *Asset) Clone() *Asset {
	cp := &Asset{Path: a.Path}
	cp.Contents = append([]byte(nil), a.Contents...)
	if a.SourceMap != nil {
		cp.SourceMap = append([]byte(nil), a.SourceMap...)
	}
	return cp
}

// Transformer rewrites an asset in place.
type Transformer interface {
	Name() string
	Transform(ctx context.Context, asset *Asset) error
}

// Func adapts a function to the Transformer interface.
type Func struct {
	Label string
	Fn    func(ctx context.Context, asset *Asset) error
}

func (f Func) Name() string { return f.Label }

func (f Func) Transform(ctx context.Context, asset *Asset) error { return f.Fn(ctx, asset) }

// Chain applies transformers in order and stops at the first failure.
type Chain []Transformer

func (c Chain) Name() string { return "chain" }

func (c Chain) Transform(ctx context.Context, asset *Asset) error {
	for _, t := range c {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Transform(ctx, asset); err != nil {
			return classify(t.Name(), asset.Path, err)
		}
	}
	return nil
}

// classify keeps typed failures and wraps everything else as a
// TransformError of the given transformer.
func classify(name, path string, err error) error {
	var compileErr *aferrors.CompileError
	var transformErr *aferrors.TransformError
	var ioErr *aferrors.IOError
	if errors.As(err, &compileErr) || errors.As(err, &transformErr) || errors.As(err, &ioErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &aferrors.TransformError{Transformer: name, Path: path, Err: err}
}
