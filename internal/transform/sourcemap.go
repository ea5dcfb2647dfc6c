package transform

import (
	"bytes"
	"encoding/base64"
	"errors"
	"path"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Kind selects the comment syntax of a sourceMappingURL annotation.
type Kind int

const (
	KindCSS Kind = iota
	KindJS
)

const dataURLPrefix = "data:application/json;charset=utf-8;base64,"

var errInvalidMap = errors.New("source map is not valid JSON")

// KindOf guesses the comment syntax from a file name.
func KindOf(name string) Kind {
	if strings.EqualFold(path.Ext(name), ".css") {
		return KindCSS
	}
	return KindJS
}

// IdentityMap returns a source map that declares source as the only
// origin of its contents without any mappings.
func IdentityMap(source string, contents []byte) []byte {
	m := []byte(`{"version":3,"mappings":""}`)
	m, _ = sjson.SetBytes(m, "sources", []string{source})
	m, _ = sjson.SetBytes(m, "sourcesContent", []string{string(contents)})
	m, _ = sjson.SetBytes(m, "names", []string{})
	return m
}

// MapOptions control how a source map is finalised before it is written.
type MapOptions struct {
	File           string
	SourceRoot     string
	IncludeContent bool
}

// FinalizeMap sets the file and sourceRoot fields of m and drops
// sourcesContent unless IncludeContent is set.
func FinalizeMap(m []byte, opts MapOptions) ([]byte, error) {
	if !gjson.ValidBytes(m) {
		return nil, errInvalidMap
	}

	var err error
	if opts.File != "" {
		if m, err = sjson.SetBytes(m, "file", opts.File); err != nil {
			return nil, err
		}
	}
	if opts.SourceRoot != "" {
		if m, err = sjson.SetBytes(m, "sourceRoot", opts.SourceRoot); err != nil {
			return nil, err
		}
	}
	if !opts.IncludeContent && gjson.GetBytes(m, "sourcesContent").Exists() {
		if m, err = sjson.DeleteBytes(m, "sourcesContent"); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RewriteSources applies rewrite to every entry of the sources array.
func RewriteSources(m []byte, rewrite func(string) string) ([]byte, error) {
	sources := gjson.GetBytes(m, "sources").Array()
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = rewrite(s.String())
	}
	return sjson.SetBytes(m, "sources", out)
}

// Annotation returns the sourceMappingURL comment that points at url.
func Annotation(url string, kind Kind) []byte {
	if kind == KindCSS {
		return []byte("\n/*# sourceMappingURL=" + url + " */\n")
	}
	return []byte("\n//# sourceMappingURL=" + url + "\n")
}

// InlineAnnotation embeds m into a data URL annotation.
func InlineAnnotation(m []byte, kind Kind) []byte {
	return Annotation(dataURLPrefix+base64.StdEncoding.EncodeToString(m), kind)
}

// ExtractInline removes a trailing inline sourceMappingURL annotation from
// code and returns the decoded map. code is returned unchanged when it has
// no inline map.
func ExtractInline(code []byte) ([]byte, []byte) {
	idx := bytes.LastIndex(code, []byte("sourceMappingURL=data:"))
	if idx < 0 {
		return code, nil
	}

	start := bytes.LastIndex(code[:idx], []byte("/*#"))
	if alt := bytes.LastIndex(code[:idx], []byte("//#")); alt > start {
		start = alt
	}
	if start < 0 {
		return code, nil
	}

	rest := code[idx+len("sourceMappingURL="):]
	if end := bytes.IndexAny(rest, " \n*"); end >= 0 {
		rest = rest[:end]
	}
	comma := bytes.IndexByte(rest, ',')
	if comma < 0 {
		return code, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(string(rest[comma+1:]))
	if err != nil || !gjson.ValidBytes(decoded) {
		return code, nil
	}
	return bytes.TrimRight(code[:start], "\n"), decoded
}

// ConcatMap builds a line-level source map for contents joined with a
// single newline between files, as produced by Concat. Every generated line
// maps to column 0 of the line it was copied from.
func ConcatMap(file string, sources []string, contents [][]byte, includeContent bool) []byte {
	var lines []string
	var prevSource, prevLine int

	segment := func(source, line int) string {
		var sb strings.Builder
		writeVLQ(&sb, 0)
		writeVLQ(&sb, source-prevSource)
		writeVLQ(&sb, line-prevLine)
		writeVLQ(&sb, 0)
		prevSource, prevLine = source, line
		return sb.String()
	}

	for i, c := range contents {
		n := bytes.Count(c, []byte("\n"))
		if len(c) > 0 && c[len(c)-1] != '\n' {
			// the separator terminates the last line
			n++
		}
		for line := 0; line < n; line++ {
			lines = append(lines, segment(i, line))
		}
		if i < len(contents)-1 && (len(c) == 0 || c[len(c)-1] == '\n') {
			// the separator opens an empty generated line
			lines = append(lines, "")
		}
	}

	m := []byte(`{"version":3}`)
	m, _ = sjson.SetBytes(m, "file", file)
	m, _ = sjson.SetBytes(m, "sources", sources)
	m, _ = sjson.SetBytes(m, "names", []string{})
	m, _ = sjson.SetBytes(m, "mappings", strings.Join(lines, ";"))
	if includeContent {
		texts := make([]string, len(contents))
		for i, c := range contents {
			texts[i] = string(c)
		}
		m, _ = sjson.SetBytes(m, "sourcesContent", texts)
	}
	return m
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func writeVLQ(sb *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & 31
		v >>= 5
		if v > 0 {
			digit |= 32
		}
		sb.WriteByte(base64Digits[digit])
		if v == 0 {
			return
		}
	}
}
