package transform

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

func TestChain(t *testing.T) {
	var calls []string
	step := func(name string, err error) Transformer {
		return Func{Label: name, Fn: func(ctx context.Context, a *Asset) error {
			calls = append(calls, name)
			a.Contents = append(a.Contents, name...)
			return err
		}}
	}

	t.Run("applies in order", func(t *testing.T) {
		calls = nil
		asset := &Asset{Path: "a.css"}
		require.NoError(t, Chain{step("x", nil), step("y", nil)}.Transform(context.Background(), asset))
		assert.Equal(t, "xy", string(asset.Contents))
	})

	t.Run("stops at first failure and wraps plain errors", func(t *testing.T) {
		calls = nil
		boom := errors.New("boom")
		err := Chain{step("x", boom), step("y", nil)}.Transform(context.Background(), &Asset{Path: "a.css"})

		var transformErr *aferrors.TransformError
		require.ErrorAs(t, err, &transformErr)
		assert.Equal(t, "x", transformErr.Transformer)
		assert.Equal(t, "a.css", transformErr.Path)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"x"}, calls)
	})

	t.Run("keeps compile errors", func(t *testing.T) {
		compileErr := &aferrors.CompileError{Path: "a.css", Reason: "bad"}
		err := Chain{step("x", compileErr)}.Transform(context.Background(), &Asset{Path: "a.css"})
		assert.Same(t, compileErr, err)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		calls = nil
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Chain{step("x", nil)}.Transform(ctx, &Asset{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, calls)
	})
}

func TestScriptCompiler(t *testing.T) {
	compiler, err := NewScriptCompiler("es2015", true)
	require.NoError(t, err)

	asset := &Asset{Path: "src/js/a.js", Contents: []byte("const greeting = 'hello';\nfunction say(name) {\n  return greeting + ' ' + name;\n}\nwindow.say = say;\n")}
	require.NoError(t, compiler.Transform(context.Background(), asset))

	out := string(asset.Contents)
	assert.NotContains(t, out, "\n  return")
	assert.Contains(t, out, "window.say")
	assert.Less(t, len(out), 90)
	assert.Nil(t, asset.SourceMap)
}

func TestScriptCompilerSyntaxError(t *testing.T) {
	compiler, err := NewScriptCompiler("es2015", true)
	require.NoError(t, err)

	asset := &Asset{Path: "src/js/broken.js", Contents: []byte("var ok = 1;\nfunction (\n")}
	err = compiler.Transform(context.Background(), asset)

	var compileErr *aferrors.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "src/js/broken.js", compileErr.Path)
	assert.Equal(t, 2, compileErr.Line)
	assert.Equal(t, "var ok = 1;\nfunction (\n", string(asset.Contents), "failed assets are left untouched")
}

func TestScriptCompilerES5(t *testing.T) {
	compiler, err := NewScriptCompiler("es5", false)
	require.NoError(t, err)

	arrow := &Asset{Path: "src/js/arrow.js", Contents: []byte("var double = (x) => x * 2;\n")}
	require.NoError(t, compiler.Transform(context.Background(), arrow))
	assert.NotContains(t, string(arrow.Contents), "=>")

	// block scoped declarations cannot be lowered to ES5
	block := &Asset{Path: "src/js/block.js", Contents: []byte("const answer = 42;\nwindow.answer = answer;\n")}
	err = compiler.Transform(context.Background(), block)
	var compileErr *aferrors.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "src/js/block.js", compileErr.Path)
}

func TestScriptCompilerSourceMap(t *testing.T) {
	compiler, err := NewScriptCompiler("es2015", true)
	require.NoError(t, err)

	src := []byte("var a = 1;\nvar b = 2;\nconsole.log(a + b);\n")
	asset := &Asset{Path: "src/js/pages/home.js", Contents: src, SourceMap: ConcatMap("home.js", []string{"src/js/pages/home.js"}, [][]byte{src}, true)}
	require.NoError(t, compiler.Transform(context.Background(), asset))

	require.NotNil(t, asset.SourceMap)
	assert.Equal(t, int64(3), gjson.GetBytes(asset.SourceMap, "version").Int())
	assert.Contains(t, gjson.GetBytes(asset.SourceMap, "sources").String(), "home.js")
	assert.NotContains(t, string(asset.Contents), "sourceMappingURL")
}

func TestParseTarget(t *testing.T) {
	_, err := ParseTarget("es1999")
	assert.Error(t, err)

	_, err = NewScriptCompiler("", false)
	assert.NoError(t, err)
}

func TestAutoprefixer(t *testing.T) {
	prefixer, err := NewAutoprefixer([]string{"safari9", "ie11"})
	require.NoError(t, err)

	asset := &Asset{Path: "src/scss/main.scss", Contents: []byte(".a { user-select: none; }\n")}
	require.NoError(t, prefixer.Transform(context.Background(), asset))

	out := string(asset.Contents)
	assert.Contains(t, out, "-webkit-user-select: none")
	assert.Contains(t, out, "user-select: none")
}

func TestParseEngines(t *testing.T) {
	tests := []struct {
		name    string
		targets []string
		wantErr bool
	}{
		{"valid", []string{"chrome49", "safari9.1", "IE11"}, false},
		{"unknown engine", []string{"netscape4"}, true},
		{"missing version", []string{"safari"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engines, err := ParseEngines(tt.targets)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, engines, len(tt.targets))
			assert.Equal(t, "9.1", engines[1].Version)
		})
	}
}

func TestCSSMinifier(t *testing.T) {
	asset := &Asset{
		Path:      "main.css",
		Contents:  []byte("a {\n  color : red ;\n}\n\n/* comment */\nb { margin: 0px }\n"),
		SourceMap: []byte(`{"version":3}`),
	}
	require.NoError(t, NewCSSMinifier().Transform(context.Background(), asset))

	assert.Equal(t, "a{color:red}b{margin:0}", string(asset.Contents))
	assert.Nil(t, asset.SourceMap)
}

func TestImageCompressor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var raw bytes.Buffer
	require.NoError(t, (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&raw, img))

	compressor := NewImageCompressor(80)

	t.Run("png shrinks", func(t *testing.T) {
		asset := &Asset{Path: "src/img/red.png", Contents: raw.Bytes()}
		require.NoError(t, compressor.Transform(context.Background(), asset))
		assert.Less(t, len(asset.Contents), raw.Len())

		decoded, err := png.Decode(bytes.NewReader(asset.Contents))
		require.NoError(t, err)
		assert.Equal(t, img.Bounds(), decoded.Bounds())
	})

	t.Run("svg minified", func(t *testing.T) {
		svgDoc := "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"10\" height=\"10\">\n  <!-- comment -->\n  <rect x=\"0\" y=\"0\" width=\"10\" height=\"10\" />\n</svg>\n"
		asset := &Asset{Path: "src/img/icon.svg", Contents: []byte(svgDoc)}
		require.NoError(t, compressor.Transform(context.Background(), asset))
		assert.Less(t, len(asset.Contents), len(svgDoc))
		assert.NotContains(t, string(asset.Contents), "comment")
	})

	t.Run("never grows", func(t *testing.T) {
		var small bytes.Buffer
		require.NoError(t, (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&small, image.NewGray(image.Rect(0, 0, 1, 1))))
		original := append([]byte(nil), small.Bytes()...)

		asset := &Asset{Path: "dot.png", Contents: small.Bytes()}
		require.NoError(t, compressor.Transform(context.Background(), asset))
		assert.LessOrEqual(t, len(asset.Contents), len(original))
	})

	t.Run("corrupt input", func(t *testing.T) {
		err := compressor.Transform(context.Background(), &Asset{Path: "bad.jpg", Contents: []byte("not a jpeg")})
		var transformErr *aferrors.TransformError
		require.ErrorAs(t, err, &transformErr)
		assert.Equal(t, "imagemin", transformErr.Transformer)
	})

	assert.True(t, compressor.Supports("a.JPEG"))
	assert.False(t, compressor.Supports("a.webp"))
}

func TestBrotli(t *testing.T) {
	data := []byte(strings.Repeat("body{margin:0}", 100))
	compressed, err := Brotli(data, 11)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(compressed)))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestParseSassError(t *testing.T) {
	stderr := "Error: expected \"}\".\n  ╷\n3 │ .a { color: red\n  │                ^\n  ╵\n  - 3:16  root stylesheet\n"
	err := parseSassError("src/scss/main.scss", stderr, errors.New("exit status 65"))

	var compileErr *aferrors.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "src/scss/main.scss", compileErr.Path)
	assert.Equal(t, `expected "}".`, compileErr.Reason)
	assert.Equal(t, 3, compileErr.Line)
	assert.Equal(t, 16, compileErr.Column)
}

func TestSassCompiler(t *testing.T) {
	if _, err := exec.LookPath("sass"); err != nil {
		t.Skip("sass executable not installed")
	}
	compiler := NewSassCompiler("", t.TempDir(), nil)

	asset := &Asset{Path: "main.scss", Contents: []byte("$c: red;\n.a { .b { color: $c; } }\n")}
	require.NoError(t, compiler.Transform(context.Background(), asset))
	assert.Contains(t, string(asset.Contents), ".a .b")
	assert.NotNil(t, asset.SourceMap)

	err := compiler.Transform(context.Background(), &Asset{Path: "bad.scss", Contents: []byte(".a { color: red")})
	var compileErr *aferrors.CompileError
	assert.ErrorAs(t, err, &compileErr)
}
