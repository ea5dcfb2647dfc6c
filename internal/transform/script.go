package transform

import (
	"context"

	"github.com/evanw/esbuild/pkg/api"
)

// ScriptCompiler transpiles scripts down to a language level and
// optionally minifies them. A source map is produced when the incoming
// asset carries one.
type ScriptCompiler struct {
	target api.Target
	minify bool
}

// NewScriptCompiler returns a compiler for target (for example "es2015").
func NewScriptCompiler(target string, minify bool) (*ScriptCompiler, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return &ScriptCompiler{target: t, minify: minify}, nil
}

func (s *ScriptCompiler) Name() string {
	if s.minify {
		return "esbuild-minify"
	}
	return "esbuild"
}

func (s *ScriptCompiler) Transform(ctx context.Context, asset *Asset) error {
	opts := api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            s.target,
		Sourcefile:        asset.Path,
		MinifyWhitespace:  s.minify,
		MinifyIdentifiers: s.minify,
		MinifySyntax:      s.minify,
		LegalComments:     api.LegalCommentsInline,
		LogLevel:          api.LogLevelSilent,
	}
	if asset.SourceMap != nil {
		opts.Sourcemap = api.SourceMapExternal
		opts.SourcesContent = api.SourcesContentInclude
	}

	result := api.Transform(withInputMap(asset, KindJS), opts)
	if len(result.Errors) > 0 {
		return compileError(asset.Path, result.Errors)
	}

	asset.Contents = result.Code
	if asset.SourceMap != nil && len(result.Map) > 0 {
		asset.SourceMap = result.Map
	}
	return nil
}
