package stage

import (
	"context"
	"io"
	"path"

	"github.com/schollz/progressbar/v3"

	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/transform"
)

// ImageStage runs every image through the compressors in order and writes
// the result at the same relative path below Dest.
type ImageStage struct {
	Meta
	Root        string
	Sources     []string
	Dest        string
	Compressors []transform.Transformer
	Sink        *Sink
	// Progress receives a progress bar; nil disables it.
	Progress io.Writer
}

func (s *ImageStage) Run(ctx context.Context) error {
	files, err := Discover(s.Root, s.Sources...)
	if err != nil {
		return err
	}

	bar := s.progressBar(len(files))
	chain := transform.Chain(s.Compressors)

	var saved int
	outputs := make([]Output, 0, len(files))
	for _, f := range files {
		data, err := ReadFile(s.Root, f.Path)
		if err != nil {
			return err
		}
		asset := &transform.Asset{Path: f.Path, Contents: data}
		if err := chain.Transform(ctx, asset); err != nil {
			return err
		}
		saved += len(data) - len(asset.Contents)
		outputs = append(outputs, Output{Path: path.Join(s.Dest, f.Rel()), Contents: asset.Contents})
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	logger.Op.WithFields(map[string]interface{}{
		"stage":       s.Name(),
		"images":      len(files),
		"saved_bytes": saved,
	}).Debug("Compressed images")
	return s.Sink.Write(outputs...)
}

func (s *ImageStage) progressBar(n int) *progressbar.ProgressBar {
	if s.Progress == nil || n == 0 {
		return progressbar.NewOptions(n, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(s.Name()),
		progressbar.OptionSetWriter(s.Progress),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			io.WriteString(s.Progress, "\n")
		}),
	)
}
