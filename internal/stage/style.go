package stage

import (
	"bytes"
	"context"
	"path"

	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/transform"
)

// StyleStage compiles every non-partial style source into a stylesheet
// with an inline source map. Relative paths below the pattern base are
// kept under Dest.
type StyleStage struct {
	Meta
	Root    string
	Sources []string
	Dest    string
	// Transformer compiles and prefixes one source, for example a chain of
	// the Sass compiler and the autoprefixer.
	Transformer transform.Transformer
	Sink        *Sink
}

func (s *StyleStage) Run(ctx context.Context) error {
	files, err := Discover(s.Root, s.Sources...)
	if err != nil {
		return err
	}
	files = Exclude(files, IsPartial)

	outputs := make([]Output, 0, len(files))
	for _, f := range files {
		data, err := ReadFile(s.Root, f.Path)
		if err != nil {
			return err
		}

		asset := &transform.Asset{Path: f.Path, Contents: data, SourceMap: transform.IdentityMap(f.Path, data)}
		if err := (transform.Chain{s.Transformer}).Transform(ctx, asset); err != nil {
			return err
		}

		out := path.Join(s.Dest, replaceExt(f.Rel(), ".css"))
		contents := asset.Contents
		if asset.SourceMap != nil {
			m, err := transform.FinalizeMap(asset.SourceMap, transform.MapOptions{
				File:           path.Base(out),
				SourceRoot:     rootFrom(path.Dir(out)),
				IncludeContent: true,
			})
			if err != nil {
				return sourcemapError(f.Path, err)
			}
			contents = append(bytes.TrimRight(contents, "\n"), transform.InlineAnnotation(m, transform.KindCSS)...)
		}
		outputs = append(outputs, Output{Path: out, Contents: contents})
	}

	logger.Op.WithFields(map[string]interface{}{
		"stage":   s.Name(),
		"inputs":  len(files),
		"outputs": len(outputs),
	}).Debug("Compiled stylesheets")
	return s.Sink.Write(outputs...)
}
