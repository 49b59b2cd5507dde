// Package encoding detects and normalizes the character encoding of raw
// delimited-text input.
//
// Every byte sequence handed to the tokenizer passes through a Converter
// first. The Basic converter never fails: it classifies the input, decodes
// UTF-16 and legacy single-byte text, repairs double-encoded (mojibake) UTF-8
// and finally drops whatever still is not valid UTF-8. The Strict converter
// refuses anything that would need such repairs.
//
// Only the encodings enumerated by the Name constants are supported.
package encoding

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Name is the canonical name of a supported encoding.
type Name string

const (
	UTF8        Name = "UTF-8"
	UTF16LE     Name = "UTF-16LE"
	UTF16BE     Name = "UTF-16BE"
	Windows1252 Name = "Windows-1252"
	ISO88591    Name = "ISO-8859-1"
	ISO885915   Name = "ISO-8859-15"
)

// ErrUnsupportedEncoding is returned by Lookup for names outside the
// supported set.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

var aliases = map[string]Name{
	"utf8":        UTF8,
	"utf16le":     UTF16LE,
	"utf16be":     UTF16BE,
	"windows1252": Windows1252,
	"cp1252":      Windows1252,
	"win1252":     Windows1252,
	"iso88591":    ISO88591,
	"latin1":      ISO88591,
	"l1":          ISO88591,
	"iso885915":   ISO885915,
	"latin9":      ISO885915,
}

// Lookup resolves an encoding name (case-insensitive, common aliases
// accepted) to its canonical Name.
func Lookup(name string) (Name, error) {
	key := strings.ToLower(name)
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if n, ok := aliases[key]; ok {
		return n, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
}

// charmapFor returns the single-byte table for a legacy encoding, or nil.
func charmapFor(n Name) *charmap.Charmap {
	switch n {
	case Windows1252:
		return charmap.Windows1252
	case ISO88591:
		return charmap.ISO8859_1
	case ISO885915:
		return charmap.ISO8859_15
	}
	return nil
}

func encodingFor(n Name) xenc.Encoding {
	switch n {
	case UTF8:
		return unicode.UTF8
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}
	if cm := charmapFor(n); cm != nil {
		return cm
	}
	return nil
}

// IsSingleByte reports whether n is one of the legacy single-byte encodings.
func IsSingleByte(n Name) bool {
	return charmapFor(n) != nil
}

// Decode interprets raw as text in encoding n and returns it as UTF-8.
func Decode(raw []byte, n Name) (string, error) {
	enc := encodingFor(n)
	if enc == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, n)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", n, err)
	}
	return strings.TrimPrefix(string(out), "\uFEFF"), nil
}

// ValidIn reports whether s can be represented in encoding n. For the
// Unicode encodings that means s is valid UTF-8; for single-byte encodings
// every rune must also have a byte in the table.
func ValidIn(s string, n Name) bool {
	if !utf8.ValidString(s) {
		return false
	}
	cm := charmapFor(n)
	if cm == nil {
		return true
	}
	for _, r := range s {
		if r < utf8.RuneSelf {
			continue
		}
		if _, ok := cm.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}
