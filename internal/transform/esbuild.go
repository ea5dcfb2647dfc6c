package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tidwall/gjson"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

var languageTargets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var engineSpec = regexp.MustCompile(`^([a-z]+)(\d+(?:\.\d+)*)$`)

// ParseEngines converts targets such as "safari9" or "ie11" into esbuild
// engine constraints.
func ParseEngines(targets []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		m := engineSpec.FindStringSubmatch(strings.ToLower(strings.TrimSpace(t)))
		if m == nil {
			return nil, fmt.Errorf("invalid engine target %q", t)
		}
		name, ok := engineNames[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown engine %q in target %q", m[1], t)
		}
		engines = append(engines, api.Engine{Name: name, Version: m[2]})
	}
	return engines, nil
}

// ParseTarget converts a language level such as "es2015" into an esbuild
// target.
func ParseTarget(target string) (api.Target, error) {
	if target == "" {
		return api.ES2015, nil
	}
	t, ok := languageTargets[strings.ToLower(target)]
	if !ok {
		return api.DefaultTarget, fmt.Errorf("unknown language target %q", target)
	}
	return t, nil
}

// compileError converts the first esbuild error message into a
// CompileError.
func compileError(path string, messages []api.Message) error {
	msg := messages[0]
	compileErr := &aferrors.CompileError{Path: path, Reason: msg.Text}
	if msg.Location != nil {
		compileErr.Line = msg.Location.Line
		compileErr.Column = msg.Location.Column + 1
	}
	if len(messages) > 1 {
		compileErr.Reason = fmt.Sprintf("%s (and %d more errors)", msg.Text, len(messages)-1)
	}
	return compileErr
}

// withInputMap appends asset's source map as an inline annotation so that
// esbuild chains it into the map it generates. Maps without mappings are
// left out; esbuild then maps straight to Sourcefile.
func withInputMap(asset *Asset, kind Kind) string {
	if asset.SourceMap == nil || gjson.GetBytes(asset.SourceMap, "mappings").String() == "" {
		return string(asset.Contents)
	}
	return string(asset.Contents) + string(InlineAnnotation(asset.SourceMap, kind))
}
