package search

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeOutput turns CLI stdout into text. Strict UTF-8 is tried first,
// then the Cyrillic code pages the CLI commonly emits, UTF-16LE and
// finally the platform locale encoding.
func decodeOutput(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(bytes.TrimPrefix(b, utf8BOM))
	}
	if looksUTF16LE(b) {
		if s, ok := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), b); ok {
			return s
		}
	}
	for _, enc := range []encoding.Encoding{charmap.Windows1251, charmap.CodePage866} {
		if s, ok := decodeWith(enc, b); ok {
			return s
		}
	}
	if s, ok := decodeWith(platformEncoding(), b); ok {
		return s
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// looksUTF16LE reports a BOM or a NUL in every other byte.
func looksUTF16LE(b []byte) bool {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE {
		return true
	}
	if len(b) < 4 || len(b)%2 != 0 {
		return false
	}
	zeros := 0
	for i := 1; i < len(b); i += 2 {
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*2 >= len(b)/2
}

func decodeWith(enc encoding.Encoding, b []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// platformEncoding reads the charset from the locale variables, e.g.
// ru_RU.CP1251. Unknown or missing charsets mean UTF-8.
func platformEncoding() encoding.Encoding {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		_, cs, ok := strings.Cut(v, ".")
		if !ok {
			break
		}
		cs, _, _ = strings.Cut(cs, "@")
		if enc, err := htmlindex.Get(cs); err == nil {
			return enc
		}
		break
	}
	return unicode.UTF8
}

// readExportFile reads an -export-txt file written with -utf8-bom. Files
// that are not valid UTF-8 are read as Windows-1251.
func readExportFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return string(b), nil
	}
	if s, ok := decodeWith(charmap.Windows1251, b); ok {
		return s, nil
	}
	return strings.ToValidUTF8(string(b), "\uFFFD"), nil
}

// splitLines returns the trimmed non-empty lines of s.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
