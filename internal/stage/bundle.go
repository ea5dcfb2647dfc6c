package stage

import (
	"bytes"
	"context"
	"path"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/transform"
)

// MapConfig requests an external source map next to a bundle.
type MapConfig struct {
	// SourceRoot is written to the map; sources are then relative to the
	// base of the pattern that matched them.
	SourceRoot     string
	IncludeContent bool
}

// BundleStage concatenates its inputs in discovery order, runs the result
// through Transformer and writes it to Dest under the ".min" name of
// Bundle.
type BundleStage struct {
	Meta
	Root    string
	Sources []string
	Exclude []string
	Bundle  string
	Dest    string
	// Transformer is optional; without one the bundle is written as
	// concatenated.
	Transformer transform.Transformer
	Sourcemap   *MapConfig
	Sink        *Sink
}

// Output returns the project-relative path of the written bundle.
func (s *BundleStage) Output() string {
	return path.Join(s.Dest, MinName(s.Bundle))
}

func (s *BundleStage) Run(ctx context.Context) error {
	files, err := Discover(s.Root, s.Sources...)
	if err != nil {
		return err
	}
	if len(s.Exclude) > 0 {
		files = Exclude(files, MatchAny(s.Exclude...))
	}
	if len(files) == 0 {
		logger.Warn("No inputs to bundle", logger.WithStage(s.Name()))
		return nil
	}

	assets := make([]*transform.Asset, 0, len(files))
	for _, f := range files {
		data, err := ReadFile(s.Root, f.Path)
		if err != nil {
			return err
		}
		name := f.Path
		if s.Sourcemap != nil {
			name = f.Rel()
		}
		assets = append(assets, &transform.Asset{Path: name, Contents: data})
	}

	bundle := transform.Concat(s.Bundle, assets, s.Sourcemap != nil)
	if s.Transformer != nil {
		if err := (transform.Chain{s.Transformer}).Transform(ctx, bundle); err != nil {
			return err
		}
	}

	out := s.Output()
	outputs := []Output{{Path: out, Contents: bundle.Contents}}
	if s.Sourcemap != nil && bundle.SourceMap != nil {
		m, err := transform.FinalizeMap(bundle.SourceMap, transform.MapOptions{
			File:           path.Base(out),
			SourceRoot:     s.Sourcemap.SourceRoot,
			IncludeContent: s.Sourcemap.IncludeContent,
		})
		if err != nil {
			return sourcemapError(out, err)
		}
		annotation := transform.Annotation(path.Base(out)+".map", transform.KindOf(out))
		outputs[0].Contents = append(bytes.TrimRight(bundle.Contents, "\n"), annotation...)
		outputs = append(outputs, Output{Path: out + ".map", Contents: m})
	}

	logger.Op.WithFields(map[string]interface{}{
		"stage":  s.Name(),
		"inputs": len(files),
		"output": out,
	}).Debug("Bundled files")
	return s.Sink.Write(outputs...)
}

func sourcemapError(path string, err error) error {
	return &aferrors.TransformError{Transformer: "sourcemaps", Path: path, Err: err}
}
