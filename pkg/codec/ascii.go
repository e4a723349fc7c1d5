package codec

import (
	"strings"
	"unicode/utf8"
)

// DefaultPad is the character used by padded string writes
const DefaultPad = ' '

// ASCIILength returns the encoded length of s: one byte per rune
func ASCIILength(s string) int {
	return utf8.RuneCountInString(s)
}

// PadLeft right-justifies s in a field of width bytes, filling on the
// left with pad. Values already at or over width are returned unchanged;
// padding never truncates.
func PadLeft(s string, width int, pad byte) string {
	n := ASCIILength(s)
	if n >= width {
		return s
	}
	return strings.Repeat(string(pad), width-n) + s
}

// TrimASCII strips leading and trailing bytes <= 0x20, which covers the
// space padding and the NUL fill of short writes
func TrimASCII(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] <= ' ' {
		start++
	}
	for end > start && s[end-1] <= ' ' {
		end--
	}
	return s[start:end]
}
