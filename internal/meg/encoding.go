package meg

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Placeholder replaces every character the archive encoding cannot represent.
const Placeholder = '?'

// asciiOnly maps every code point outside ASCII (including invalid UTF-8,
// which arrives as utf8.RuneError) to a single Placeholder.
var asciiOnly = runes.Map(func(r rune) rune {
	if r >= utf8.RuneSelf {
		return Placeholder
	}
	return r
})

// EncodePath transliterates path to the single-byte archive encoding.
// Unsupported characters become one Placeholder each, so two different
// inputs may encode to the same path.
func EncodePath(path string) string {
	encoded, _, err := transform.String(asciiOnly, path)
	if err != nil {
		// runes.Map never fails; keep the input rather than lose it.
		return path
	}
	return encoded
}

// IsEncoded reports whether path consists only of bytes the archive encoding can hold.
func IsEncoded(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// DecodeName decodes a raw name table entry. Bytes outside ASCII decode to
// Placeholder rather than failing, which keeps archives written by
// third-party tools with other single-byte code pages readable.
func DecodeName(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c >= utf8.RuneSelf {
			b.WriteByte(Placeholder)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
