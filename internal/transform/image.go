package transform

import (
	"bytes"
	"context"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/tdewolff/minify/v2"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

// ImageCompressor re-encodes raster images and minifies SVG documents.
// The compressed bytes are kept only when they are smaller than the
// original, so the output never grows.
type ImageCompressor struct {
	JPEGQuality int
	m           *minify.M
}

func NewImageCompressor(jpegQuality int) *ImageCompressor {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = jpeg.DefaultQuality
	}
	return &ImageCompressor{JPEGQuality: jpegQuality, m: newMinifier()}
}

func (c *ImageCompressor) Name() string { return "imagemin" }

// Supports reports whether the file extension is handled.
func (c *ImageCompressor) Supports(name string) bool {
	switch imageFormat(name) {
	case "png", "jpeg", "gif", "svg":
		return true
	}
	return false
}

func (c *ImageCompressor) Transform(ctx context.Context, asset *Asset) error {
	var (
		out []byte
		err error
	)

	switch imageFormat(asset.Path) {
	case "png":
		out, err = c.png(asset.Contents)
	case "jpeg":
		out, err = c.jpeg(asset.Contents)
	case "gif":
		out, err = c.gif(asset.Contents)
	case "svg":
		out, err = c.m.Bytes(mimeSVG, asset.Contents)
	default:
		return nil
	}
	if err != nil {
		return &aferrors.TransformError{Transformer: c.Name(), Path: asset.Path, Err: err}
	}

	if len(out) < len(asset.Contents) {
		asset.Contents = out
	}
	return nil
}

func (c *ImageCompressor) png(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *ImageCompressor) jpeg(data []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *ImageCompressor) gif(data []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func imageFormat(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".svg":
		return "svg"
	}
	return ""
}
