package transform

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
)

// SassCompiler compiles SCSS through the Dart Sass command line. The
// compiled CSS replaces the asset contents and the embedded source map is
// moved to Asset.SourceMap.
type SassCompiler struct {
	Binary    string
	LoadPaths []string
	// Dir is the working directory of the compiler, normally the project
	// root that asset paths are relative to.
	Dir string
}

// NewSassCompiler returns a compiler using binary (default "sass").
func NewSassCompiler(binary, dir string, loadPaths []string) *SassCompiler {
	if binary == "" {
		binary = "sass"
	}
	return &SassCompiler{Binary: binary, Dir: dir, LoadPaths: loadPaths}
}

func (s *SassCompiler) Name() string { return "sass" }

// Available reports whether the compiler binary can be found.
func (s *SassCompiler) Available() bool {
	_, err := exec.LookPath(s.Binary)
	return err == nil
}

func (s *SassCompiler) Transform(ctx context.Context, asset *Asset) error {
	args := []string{"--stdin", "--embed-source-map", "--embed-sources", "--no-error-css"}
	// stdin has no URL, so relative imports resolve through the file's own
	// directory first
	args = append(args, "--load-path="+filepath.Dir(asset.Path))
	for _, p := range s.LoadPaths {
		args = append(args, "--load-path="+p)
	}

	cmd := exec.CommandContext(ctx, s.Binary, args...)
	cmd.Dir = s.Dir
	cmd.Stdin = bytes.NewReader(asset.Contents)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Op.WithFields(map[string]interface{}{
		"file":       asset.Path,
		"load_paths": s.LoadPaths,
	}).Debug("Compiling stylesheet")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return parseSassError(asset.Path, stderr.String(), err)
		}
		return &aferrors.TransformError{Transformer: s.Name(), Path: asset.Path, Err: err}
	}

	code, m := ExtractInline(stdout.Bytes())
	asset.Contents = append(code, '\n')
	if m != nil {
		// stdin input is reported as a "-" or data: source; name it after the file
		m, _ = RewriteSources(m, func(src string) string {
			if src == "-" || src == "" || strings.HasPrefix(src, "data:") {
				return asset.Path
			}
			return src
		})
		asset.SourceMap = m
	}
	return nil
}

var sassLocation = regexp.MustCompile(`(?m)^\s*(\S+)\s+(\d+):(\d+)\s+root stylesheet`)

// parseSassError turns Dart Sass diagnostics into a CompileError.
func parseSassError(path, stderr string, cause error) error {
	compileErr := &aferrors.CompileError{Path: path, Err: cause}

	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > 0 {
		compileErr.Reason = strings.TrimPrefix(strings.TrimSpace(lines[0]), "Error: ")
	}
	if m := sassLocation.FindStringSubmatch(stderr); m != nil {
		compileErr.Line, _ = strconv.Atoi(m[2])
		compileErr.Column, _ = strconv.Atoi(m[3])
	}
	return compileErr
}
