package transform

import (
	"bytes"
)

// Concat joins assets in order with a newline between them into a new
// asset named name. With withMap set the result carries a line-level
// source map back to every input path.
func Concat(name string, assets []*Asset, withMap bool) *Asset {
	var buf bytes.Buffer
	sources := make([]string, len(assets))
	contents := make([][]byte, len(assets))

	for i, a := range assets {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(a.Contents)
		sources[i] = a.Path
		contents[i] = a.Contents
	}

	out := &Asset{Path: name, Contents: buf.Bytes()}
	if withMap {
		out.SourceMap = ConcatMap(name, sources, contents, true)
	}
	return out
}
