package services

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns content as UTF-8, falling back to ISO-8859-1 when the
// bytes are not valid UTF-8. The second result reports whether the fallback was used.
func decodeText(content []byte) (string, bool) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), false
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return string(content), false
	}
	return string(decoded), true
}
