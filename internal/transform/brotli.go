package transform

import (
	"bytes"

	"github.com/andybalholm/brotli"
)

// Brotli compresses data at the given quality (0-11).
func Brotli(data []byte, quality int) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, quality)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
