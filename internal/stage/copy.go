package stage

import (
	"context"
	"path"

	"github.com/maxkimambo/assetflow/internal/logger"
)

// CopyStage copies matching files byte for byte to Dest, keeping their
// path relative to the pattern base.
type CopyStage struct {
	Meta
	Root    string
	Sources []string
	// Exclude drops files claimed by another stage, for example style
	// sources that are compiled rather than copied.
	Exclude []string
	Dest    string
	Sink    *Sink
}

func (s *CopyStage) Run(ctx context.Context) error {
	files, err := Discover(s.Root, s.Sources...)
	if err != nil {
		return err
	}
	if len(s.Exclude) > 0 {
		files = Exclude(files, MatchAny(s.Exclude...))
	}

	outputs := make([]Output, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := ReadFile(s.Root, f.Path)
		if err != nil {
			return err
		}
		outputs = append(outputs, Output{Path: path.Join(s.Dest, f.Rel()), Contents: data})
	}

	logger.Op.WithFields(map[string]interface{}{
		"stage": s.Name(),
		"files": len(outputs),
		"dest":  s.Dest,
	}).Debug("Copied files")
	return s.Sink.Write(outputs...)
}
