package tabular

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Canonical names reported for decoded content.
const (
	EncodingUTF8   = "utf-8"
	EncodingCP1252 = "cp1252"
	EncodingLatin1 = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// singleByteEncodings maps the accepted encoding names to decoders.
var singleByteEncodings = map[string]encoding.Encoding{
	"latin1":       charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"cp1250":       charmap.Windows1250,
	"windows-1250": charmap.Windows1250,
}

// DetectEncoding guesses the encoding of raw file content. Valid UTF-8
// (including plain ASCII) is reported as utf-8. Otherwise bytes in the
// 0x80-0x9F range, which are control codes in ISO-8859-1, point at cp1252.
func DetectEncoding(content []byte) string {
	if utf8.Valid(content) {
		return EncodingUTF8
	}
	for _, b := range content {
		if b >= 0x80 && b <= 0x9F {
			return EncodingCP1252
		}
	}
	return EncodingLatin1
}

// decode converts content to a UTF-8 string. The detected encoding is tried
// first, then each fallback in order. When nothing decodes cleanly the content
// is read as UTF-8 with invalid sequences replaced.
func decode(content []byte, fallbacks []string) (string, string) {
	content = bytes.TrimPrefix(content, utf8BOM)

	candidates := append([]string{DetectEncoding(content)}, fallbacks...)
	for _, name := range candidates {
		if text, ok := decodeAs(content, name); ok {
			return text, canonicalEncoding(name)
		}
	}
	return strings.ToValidUTF8(string(content), "�"), EncodingUTF8
}

func decodeAs(content []byte, name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "utf-8" || name == "utf8" {
		if !utf8.Valid(content) {
			return "", false
		}
		return string(content), true
	}

	enc, ok := singleByteEncodings[name]
	if !ok {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return "", false
	}
	// Single-byte input never legitimately produces U+FFFD; seeing one means
	// the code page has no mapping for some byte.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

func canonicalEncoding(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return EncodingUTF8
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1
	case "cp1252", "windows-1252":
		return EncodingCP1252
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}
