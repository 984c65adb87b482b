package prototext

import "unicode/utf8"

// encodeRune writes r's UTF-8 encoding into buf (which must have
// capacity for utf8.UTFMax bytes) and returns the number of bytes
// written, delegating to unicode/utf8 for the actual encoding table.
func encodeRune(buf []byte, r rune) int {
	return utf8.EncodeRune(buf, r)
}
