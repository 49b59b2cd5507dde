package encoding

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DoubleEncodingThreshold is the number of double-encoding patterns at
// which valid UTF-8 input is considered damaged and a repair is attempted.
const DoubleEncodingThreshold = 3

// mojibakeSource lists the characters whose double-encoded form is
// recognised. Each pattern is the Windows-1252 reading of the UTF-8 bytes
// of one of these characters, e.g. "é" becomes "Ã©".
var mojibakeSource = []rune{
	'ä', 'ö', 'ü', 'Ä', 'Ö', 'Ü', 'ß',
	'é', 'è', 'ê', 'ë', 'à', 'â', 'ç', 'ô', 'î', 'ï', 'ù', 'û',
	'á', 'í', 'ó', 'ú', 'ñ', '¿', '¡',
	'€', '£', '©', '®', '™',
	'“', '”', '‘', '’', '–', '—', '…', '•',
}

// mojibakePatterns is derived once from mojibakeSource.
var mojibakePatterns = buildPatterns()

// repairCandidates are tried in order when repairing double-encoded text.
var repairCandidates = []Name{Windows1252, ISO88591, ISO885915}

func buildPatterns() []string {
	patterns := make([]string, 0, len(mojibakeSource))
	for _, r := range mojibakeSource {
		var b strings.Builder
		for _, c := range utf8.AppendRune(nil, r) {
			b.WriteRune(misreadByte(c))
		}
		patterns = append(patterns, b.String())
	}
	return patterns
}

// misreadByte is the rune a Windows-1252 reader shows for c. The five bytes
// Windows-1252 leaves undefined (0x81, 0x8D, 0x8F, 0x90, 0x9D) pass through
// as the matching C1 control, which is what misconfigured exports produce.
func misreadByte(c byte) rune {
	if r := charmap.Windows1252.DecodeByte(c); r != utf8.RuneError {
		return r
	}
	return rune(c)
}

// Patterns returns a copy of the recognised double-encoding patterns.
func Patterns() []string {
	return append([]string(nil), mojibakePatterns...)
}

// CountDoubleEncoding returns the number of non-overlapping double-encoding
// pattern occurrences in s.
func CountDoubleEncoding(s string) int {
	if isASCII(s) {
		return 0
	}
	n := 0
	for _, p := range mojibakePatterns {
		n += strings.Count(s, p)
	}
	return n
}

// RepairDoubleEncoding undoes one level of double encoding. Each candidate
// in Windows-1252, ISO-8859-1, ISO-8859-15 order is used to map runs of
// non-ASCII characters back to their single-byte values; a run is replaced
// only when the resulting bytes are valid UTF-8. The first candidate whose
// result has fewer patterns than s and at most half as many is returned
// together with its name. When no candidate qualifies s is returned
// unchanged and the name is empty.
func RepairDoubleEncoding(s string) (string, Name) {
	orig := CountDoubleEncoding(s)
	if orig == 0 {
		return s, ""
	}
	for _, name := range repairCandidates {
		attempt := reencode(s, charmapFor(name))
		n := CountDoubleEncoding(attempt)
		if n < orig && n*2 <= orig {
			return attempt, name
		}
	}
	return s, ""
}

// reencode maps each run of non-ASCII runes representable in cm back to
// the bytes cm assigns them and keeps the run if those bytes decode as UTF-8.
func reencode(s string, cm *charmap.Charmap) string {
	var b strings.Builder
	b.Grow(len(s))

	run := make([]byte, 0, 16)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if utf8.Valid(run) {
			b.Write(run)
		} else {
			b.WriteString(s[start:end])
		}
		run = run[:0]
		start = -1
	}

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= utf8.RuneSelf && size > 1 {
			if c, ok := encodeRune(cm, r); ok {
				if start < 0 {
					start = i
				}
				run = append(run, c)
				i += size
				continue
			}
		}
		flush(i)
		b.WriteString(s[i : i+size])
		i += size
	}
	flush(len(s))
	return b.String()
}

// encodeRune is cm.EncodeRune with C1 controls mapped to their own byte, so
// undefined Windows-1252 bytes survive a misread and can be restored.
func encodeRune(cm *charmap.Charmap, r rune) (byte, bool) {
	if c, ok := cm.EncodeRune(r); ok {
		return c, true
	}
	if r >= 0x80 && r <= 0x9F {
		return charmap.ISO8859_1.EncodeRune(r)
	}
	return 0, false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// RepairDoubleEncodingWith is RepairDoubleEncoding restricted to a single
// legacy encoding. Strings with fewer than DoubleEncodingThreshold patterns
// are left alone. It reports whether s was changed.
func RepairDoubleEncodingWith(s string, n Name) (string, bool) {
	cm := charmapFor(n)
	orig := CountDoubleEncoding(s)
	if cm == nil || orig < DoubleEncodingThreshold {
		return s, false
	}
	attempt := reencode(s, cm)
	if c := CountDoubleEncoding(attempt); c < orig && c*2 <= orig && attempt != s {
		return attempt, true
	}
	return s, false
}
