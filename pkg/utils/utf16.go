package utils

import "unicode/utf16"

// Utf16Encode encodes a Go string (UTF-8) into UTF-16 code units, the
// representation both pali string literals and poki on-disk labels use.
func Utf16Encode(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// Utf16Decode decodes a sequence of UTF-16 code units back into a Go
// string.
func Utf16Decode(units []uint16) string {
	return string(utf16.Decode(units))
}
