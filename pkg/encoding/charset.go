// Package encoding provides text decoding utilities for legacy model identifiers.
package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Charset names the byte encoding used for identifiers inside a model file.
type Charset string

// Supported identifier charsets.
const (
	CharsetUTF8        Charset = "utf-8"
	CharsetWindows1252 Charset = "windows-1252"
	CharsetLatin1      Charset = "iso-8859-1"
)

// ParseCharset maps a configuration value to a Charset.
// An empty value selects UTF-8.
func ParseCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return CharsetUTF8, nil
	case "windows-1252", "cp1252":
		return CharsetWindows1252, nil
	case "iso-8859-1", "latin1":
		return CharsetLatin1, nil
	default:
		return "", fmt.Errorf("unknown identifier charset %q", name)
	}
}

// Decode converts raw identifier bytes to a UTF-8 string.
// Bytes that are invalid in the source charset are kept as-is.
func (c Charset) Decode(data []byte) string {
	var cm *charmap.Charmap
	switch c {
	case CharsetWindows1252:
		cm = charmap.Windows1252
	case CharsetLatin1:
		cm = charmap.ISO8859_1
	default:
		if utf8.Valid(data) {
			return string(data)
		}
		// Fall back to Latin-1 so every byte maps to one rune.
		cm = charmap.ISO8859_1
	}

	result, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// TrimIdentifier removes trailing NUL padding from a decoded identifier.
func TrimIdentifier(s string) string {
	return strings.TrimRight(s, "\x00")
}

// NormalizeAssetName normalizes an asset path for case-insensitive lookup.
func NormalizeAssetName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.ToLower(name)
}
