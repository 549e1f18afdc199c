package ply

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// decodeComment converts a header comment to UTF-8. Exporters on Windows
// write comments in the ANSI code page, so invalid UTF-8 is read as
// Windows-1252. Returns the input unchanged if conversion fails.
func decodeComment(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, _, err := transform.String(charmap.Windows1252.NewDecoder(), s)
	if err != nil {
		return s
	}
	return out
}
