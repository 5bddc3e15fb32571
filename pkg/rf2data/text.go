package rf2data

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// CString decodes a NUL terminated fixed-size char array. The plugin copies
// names straight from the game, which may be UTF-8 or Windows-1252, so UTF-8
// is tried first.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if utf8.Valid(b) {
		return strings.TrimRight(string(b), " ")
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.TrimRight(strings.ToValidUTF8(string(b), ""), " ")
	}
	return strings.TrimRight(string(decoded), " ")
}

// putCString writes s into a fixed array of n bytes, always NUL terminated.
// Characters outside Windows-1252 are written as UTF-8.
func putCString(b []byte, off, n int, s string) {
	dst := b[off : off+n]
	clear(dst)
	enc, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		enc = s
	}
	copy(dst[:n-1], enc)
}
