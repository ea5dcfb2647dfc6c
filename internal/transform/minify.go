package transform

import (
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/svg"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

const (
	mimeCSS = "text/css"
	mimeSVG = "image/svg+xml"
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mimeCSS, css.Minify)
	m.AddFunc(mimeSVG, svg.Minify)
	return m
}

// CSSMinifier minifies stylesheets. Any source map is dropped.
type CSSMinifier struct {
	m *minify.M
}

func NewCSSMinifier() *CSSMinifier {
	return &CSSMinifier{m: newMinifier()}
}

func (c *CSSMinifier) Name() string { return "cssmin" }

func (c *CSSMinifier) Transform(ctx context.Context, asset *Asset) error {
	out, err := c.m.Bytes(mimeCSS, asset.Contents)
	if err != nil {
		return &aferrors.TransformError{Transformer: c.Name(), Path: asset.Path, Err: err}
	}
	asset.Contents = out
	asset.SourceMap = nil
	return nil
}
