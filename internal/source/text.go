package source

import (
	"bytes"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextDecoder passes plain text and markdown corpora through unchanged,
// apart from a leading byte order mark.
type TextDecoder struct{}

func (d *TextDecoder) Decode(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}
