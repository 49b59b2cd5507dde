package encoding

import (
	"bytes"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
)

// Kind is the outcome of classifying raw input.
type Kind int

const (
	Indeterminate Kind = iota
	ValidUTF8
	UTF16LittleEndian
	UTF16BigEndian
	LegacySingleByte
)

func (k Kind) String() string {
	switch k {
	case ValidUTF8:
		return "utf-8"
	case UTF16LittleEndian:
		return "utf-16le"
	case UTF16BigEndian:
		return "utf-16be"
	case LegacySingleByte:
		return "legacy"
	default:
		return "indeterminate"
	}
}

// MarshalText renders the kind by name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// legacyCandidates are scored, in this order, when input is not valid UTF-8.
var legacyCandidates = []Name{Windows1252, ISO885915, ISO88591}

// confidenceRunes appear in Windows-1252 text but not in ISO-8859-1; their
// presence after decoding is a strong sign the guess was right.
const confidenceRunes = "€™©®–—“”‘’…•"

// hintSampleSize bounds the bytes handed to the statistical detector.
const hintSampleSize = 4096

// Classification describes what Classify found out about raw input.
type Classification struct {
	Kind Kind `json:"kind"`
	// Encoding is the encoding the input will be decoded from.
	Encoding Name `json:"encoding"`
	BOM      bool `json:"bom"`
	// DoubleEncoded is set when valid UTF-8 input holds at least
	// DoubleEncodingThreshold mojibake patterns.
	DoubleEncoded bool `json:"double_encoded"`
	PatternCount  int  `json:"pattern_count"`
	// Hint is the statistical detector's best guess. It is informational
	// and never changes the decision.
	Hint           string `json:"hint,omitempty"`
	HintConfidence int    `json:"hint_confidence,omitempty"`
}

// Report describes what NormalizeReport did to its input.
type Report struct {
	Classification Classification `json:"classification"`
	Repaired       bool           `json:"repaired"`
	RepairedWith   Name           `json:"repaired_with,omitempty"`
	DroppedBytes   int            `json:"dropped_bytes"`
}

// Classify inspects raw without changing it.
func Classify(raw []byte) Classification {
	c, _ := classify(raw)
	c.Hint, c.HintConfidence = detectHint(raw)
	return c
}

// classify returns the classification and, for legacy input, the winning
// decoded text so NormalizeReport does not have to decode twice.
func classify(raw []byte) (Classification, string) {
	var c Classification

	data := raw
	if bytes.HasPrefix(data, bomUTF8) {
		c.BOM = true
		data = data[len(bomUTF8):]
	}

	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		c.Kind, c.Encoding, c.BOM = UTF16LittleEndian, UTF16LE, true
		return c, ""
	case bytes.HasPrefix(data, bomUTF16BE):
		c.Kind, c.Encoding, c.BOM = UTF16BigEndian, UTF16BE, true
		return c, ""
	}

	if utf8.Valid(data) {
		c.Kind, c.Encoding = ValidUTF8, UTF8
		c.PatternCount = CountDoubleEncoding(string(data))
		c.DoubleEncoded = c.PatternCount >= DoubleEncodingThreshold
		return c, ""
	}

	name, text := bestLegacyDecode(data)
	c.Kind, c.Encoding = LegacySingleByte, name
	if hasC1Controls(text) {
		c.Kind = Indeterminate
	}
	return c, text
}

// bestLegacyDecode decodes data with each legacy candidate and keeps the
// highest scoring result. Ties keep the earlier candidate.
func bestLegacyDecode(data []byte) (Name, string) {
	var (
		bestName  Name
		bestText  string
		bestScore = -1 << 31
	)
	for _, name := range legacyCandidates {
		text, err := Decode(data, name)
		if err != nil {
			continue
		}
		score := 0
		if utf8.ValidString(text) {
			score += 100
		}
		score -= 10 * strings.Count(text, string(utf8.RuneError))
		if strings.ContainsAny(text, confidenceRunes) {
			score += 50
		}
		if score > bestScore {
			bestName, bestText, bestScore = name, text, score
		}
	}
	return bestName, bestText
}

// hasC1Controls reports whether s holds U+0080..U+009F, which no text
// producer emits on purpose. Decoded legacy input containing them is most
// likely binary or in an unsupported encoding.
func hasC1Controls(s string) bool {
	for _, r := range s {
		if r >= 0x80 && r <= 0x9F {
			return true
		}
	}
	return false
}

func detectHint(raw []byte) (string, int) {
	if len(raw) == 0 {
		return "", 0
	}
	sample := raw
	if len(sample) > hintSampleSize {
		sample = sample[:hintSampleSize]
	}
	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || res == nil {
		return "", 0
	}
	return res.Charset, res.Confidence
}

// Normalize converts raw to valid UTF-8 without ever failing.
func Normalize(raw []byte) []byte {
	out, _ := NormalizeReport(raw)
	return out
}

// NormalizeReport converts raw to valid UTF-8 and reports what it did:
//
//  1. a leading UTF-8 BOM is removed;
//  2. UTF-16 input (detected by BOM) is decoded and returned;
//  3. valid UTF-8 with DoubleEncodingThreshold or more mojibake patterns is
//     repaired when a candidate at least halves the pattern count;
//  4. invalid UTF-8 is decoded from the best scoring legacy encoding;
//  5. any sequence still not valid UTF-8 is dropped.
func NormalizeReport(raw []byte) ([]byte, Report) {
	var rep Report
	if len(raw) == 0 {
		rep.Classification = Classification{Kind: ValidUTF8, Encoding: UTF8}
		return []byte{}, rep
	}

	c, legacy := classify(raw)
	rep.Classification = c

	data := bytes.TrimPrefix(raw, bomUTF8)

	var text string
	switch c.Kind {
	case UTF16LittleEndian, UTF16BigEndian:
		decoded, err := Decode(data, c.Encoding)
		if err != nil {
			slog.Warn("utf-16 decode failed, dropping invalid sequences", "encoding", c.Encoding, "error", err)
			decoded = string(data)
		}
		text = decoded
	case ValidUTF8:
		text = string(data)
		if c.DoubleEncoded {
			repaired, with := RepairDoubleEncoding(text)
			if with != "" {
				text = repaired
				rep.Repaired, rep.RepairedWith = true, with
			}
		}
	default:
		text = legacy
	}

	clean := strings.ToValidUTF8(text, "")
	rep.DroppedBytes = len(text) - len(clean)
	if rep.DroppedBytes > 0 {
		slog.Warn("dropped invalid byte sequences", "bytes", rep.DroppedBytes, "encoding", c.Encoding)
	}
	return []byte(clean), rep
}

// Validate is the strict counterpart of Normalize. It strips a leading UTF-8
// BOM and returns the remaining bytes unchanged, or an *EncodingError when
// they are not valid UTF-8 or look double-encoded.
func Validate(raw []byte) ([]byte, error) {
	data := bytes.TrimPrefix(raw, bomUTF8)
	if !utf8.Valid(data) {
		return nil, &EncodingError{Err: ErrNotUTF8}
	}
	if n := CountDoubleEncoding(string(data)); n >= DoubleEncodingThreshold {
		return nil, &EncodingError{Err: ErrDoubleEncoded, PatternCount: n}
	}
	return data, nil
}
