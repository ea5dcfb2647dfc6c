package transform

import (
	"context"

	"github.com/evanw/esbuild/pkg/api"
)

// Autoprefixer adds vendor prefixes required by the configured engines.
// esbuild's CSS printer inserts the prefixed declarations next to the
// standard ones.
type Autoprefixer struct {
	engines []api.Engine
}

// NewAutoprefixer validates targets such as "safari9" and returns a
// prefixer for them.
func NewAutoprefixer(targets []string) (*Autoprefixer, error) {
	engines, err := ParseEngines(targets)
	if err != nil {
		return nil, err
	}
	return &Autoprefixer{engines: engines}, nil
}

func (p *Autoprefixer) Name() string { return "autoprefixer" }

func (p *Autoprefixer) Transform(ctx context.Context, asset *Asset) error {
	opts := api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    p.engines,
		Sourcefile: asset.Path,
		LogLevel:   api.LogLevelSilent,
	}
	if asset.SourceMap != nil {
		opts.Sourcemap = api.SourceMapExternal
		opts.SourcesContent = api.SourcesContentInclude
	}

	result := api.Transform(withInputMap(asset, KindCSS), opts)
	if len(result.Errors) > 0 {
		return compileError(asset.Path, result.Errors)
	}

	asset.Contents = result.Code
	if asset.SourceMap != nil && len(result.Map) > 0 {
		asset.SourceMap = result.Map
	}
	return nil
}
