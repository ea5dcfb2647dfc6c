package stage

import (
	"bytes"
	"context"
	"path"
	"path/filepath"

	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/transform"
)

// PerFileStage transforms every input into its own output below Dest.
// With MapDir set, an external source map is written to Dest/MapDir and
// referenced from the output.
type PerFileStage struct {
	Meta
	Root        string
	Sources     []string
	Exclude     []string
	Dest        string
	MapDir      string
	Transformer transform.Transformer
	Sink        *Sink
}

func (s *PerFileStage) Run(ctx context.Context) error {
	files, err := Discover(s.Root, s.Sources...)
	if err != nil {
		return err
	}
	if len(s.Exclude) > 0 {
		files = Exclude(files, MatchAny(s.Exclude...))
	}

	outputs := make([]Output, 0, 2*len(files))
	for _, f := range files {
		data, err := ReadFile(s.Root, f.Path)
		if err != nil {
			return err
		}

		asset := &transform.Asset{Path: f.Path, Contents: data}
		if s.MapDir != "" {
			asset.SourceMap = transform.IdentityMap(f.Path, data)
		}
		if err := (transform.Chain{s.Transformer}).Transform(ctx, asset); err != nil {
			return err
		}

		out := path.Join(s.Dest, f.Rel())
		if s.MapDir == "" || asset.SourceMap == nil {
			outputs = append(outputs, Output{Path: out, Contents: asset.Contents})
			continue
		}

		mapPath := path.Join(s.Dest, s.MapDir, f.Rel()+".map")
		m, err := transform.FinalizeMap(asset.SourceMap, transform.MapOptions{
			File:           path.Base(out),
			SourceRoot:     rootFrom(path.Dir(mapPath)),
			IncludeContent: true,
		})
		if err != nil {
			return sourcemapError(f.Path, err)
		}
		url, err := filepath.Rel(path.Dir(out), mapPath)
		if err != nil {
			return sourcemapError(f.Path, err)
		}
		contents := append(bytes.TrimRight(asset.Contents, "\n"), transform.Annotation(filepath.ToSlash(url), transform.KindOf(out))...)
		outputs = append(outputs, Output{Path: out, Contents: contents}, Output{Path: mapPath, Contents: m})
	}

	logger.Op.WithFields(map[string]interface{}{
		"stage":  s.Name(),
		"inputs": len(files),
		"dest":   s.Dest,
	}).Debug("Transformed files")
	return s.Sink.Write(outputs...)
}
