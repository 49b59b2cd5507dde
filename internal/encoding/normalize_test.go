package encoding

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// misreadAs1252 renders the UTF-8 bytes of s the way a Windows-1252 reader
// displays them, keeping undefined bytes as C1 controls.
func misreadAs1252(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		r := charmap.Windows1252.DecodeByte(s[i])
		if r == utf8.RuneError {
			r = rune(s[i])
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestCountDoubleEncoding(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ascii", "plain ascii, nothing here", 0},
		{"clean utf8", "München Köln Café", 0},
		{"one pattern", "CafÃ©", 1},
		{"three patterns", "MÃ¼nchen, KÃ¶ln, CafÃ©", 3},
		{"repeated pattern", "Ã©Ã©Ã©Ã©", 4},
		{"euro sign", "Price: 5â‚¬", 1},
		{"closing quote keeps undefined byte", "aâ€\u009d bâ€\u009d câ€\u009d", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountDoubleEncoding(tt.input); got != tt.want {
				t.Errorf("CountDoubleEncoding(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepairDoubleEncoding(t *testing.T) {
	got, with := RepairDoubleEncoding("MÃ¼nchen, KÃ¶ln, CafÃ©")
	if got != "München, Köln, Café" {
		t.Errorf("got %q, want %q", got, "München, Köln, Café")
	}
	if with != Windows1252 {
		t.Errorf("repaired with %q, want %q", with, Windows1252)
	}

	// Legitimate characters next to damaged ones survive the repair.
	got, _ = RepairDoubleEncoding("Ã¼ber naïve Ã¼ber")
	if got != "über naïve über" {
		t.Errorf("mixed text: got %q", got)
	}
}

func TestRepairDoubleEncoding_SmartQuotes(t *testing.T) {
	want := "“Hello” — it’s “fine” … ok"
	got, with := RepairDoubleEncoding(misreadAs1252(want))
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if with != Windows1252 {
		t.Errorf("repaired with %q, want %q", with, Windows1252)
	}

	got, _ = RepairDoubleEncoding("aâ€\u009d bâ€\u009d câ€\u009d")
	if got != "a” b” c”" {
		t.Errorf("closing quotes: got %q", got)
	}
}

func TestPatternsHaveNoReplacementChar(t *testing.T) {
	for _, p := range Patterns() {
		if strings.ContainsRune(p, utf8.RuneError) {
			t.Errorf("pattern %q holds U+FFFD and can never match", p)
		}
	}
}

func TestRepairDoubleEncodingWith(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		changed bool
	}{
		{"one pattern untouched", "MÃ¼nchen", "MÃ¼nchen", false},
		{"two patterns untouched", "CafÃ© MÃ¼nchen", "CafÃ© MÃ¼nchen", false},
		{"three patterns repaired", "MÃ¼nchen, KÃ¶ln, CafÃ©", "München, Köln, Café", true},
		{"clean", "München", "München", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := RepairDoubleEncodingWith(tt.input, Windows1252)
			if got != tt.want || changed != tt.changed {
				t.Errorf("got (%q, %v), want (%q, %v)", got, changed, tt.want, tt.changed)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		want     string
		kind     Kind
		repaired bool
	}{
		{"empty", []byte{}, "", ValidUTF8, false},
		{"ascii", []byte("a,b\n1,2"), "a,b\n1,2", ValidUTF8, false},
		{"utf8 bom stripped", []byte("\xEF\xBB\xBFname\nJohn"), "name\nJohn", ValidUTF8, false},
		{"utf16le", []byte("\xFF\xFEh\x00i\x00,\x00\xE9\x00"), "hi,é", UTF16LittleEndian, false},
		{"utf16be", []byte("\xFE\xFF\x00h\x00i"), "hi", UTF16BigEndian, false},
		{"iso-8859-1 e acute", []byte("name\nRen\xE9"), "name\nRené", LegacySingleByte, false},
		{"windows-1252 smart quotes", []byte("\x93quoted\x94 \x80 5"), "“quoted” € 5", LegacySingleByte, false},
		{"two patterns untouched", []byte("CafÃ© MÃ¼nchen"), "CafÃ© MÃ¼nchen", ValidUTF8, false},
		{"three patterns repaired", []byte("MÃ¼nchen, KÃ¶ln, CafÃ©"), "München, Köln, Café", ValidUTF8, true},
		{"smart quotes repaired", []byte(misreadAs1252("“Hello” — it’s “fine” … ok")), "“Hello” — it’s “fine” … ok", ValidUTF8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, rep := NormalizeReport(tt.input)
			if string(out) != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
			if rep.Classification.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", rep.Classification.Kind, tt.kind)
			}
			if rep.Repaired != tt.repaired {
				t.Errorf("repaired = %v, want %v", rep.Repaired, tt.repaired)
			}
		})
	}
}

func TestNormalizeIsIdempotentOnCleanText(t *testing.T) {
	in := "id,name\n1,Zoë\n2,Ågot\n"
	once := Normalize([]byte(in))
	twice := Normalize(once)
	if string(once) != in || string(twice) != in {
		t.Errorf("clean text changed: %q -> %q -> %q", in, once, twice)
	}
}

func TestClassify(t *testing.T) {
	c := Classify([]byte("\xEF\xBB\xBFMÃ¼nchen, KÃ¶ln, CafÃ©"))
	if c.Kind != ValidUTF8 || !c.BOM {
		t.Errorf("kind=%v bom=%v, want utf-8 with bom", c.Kind, c.BOM)
	}
	if !c.DoubleEncoded || c.PatternCount != 3 {
		t.Errorf("double=%v count=%d, want true/3", c.DoubleEncoded, c.PatternCount)
	}

	c = Classify([]byte("caf\xE9"))
	if c.Kind != LegacySingleByte || c.Encoding != Windows1252 {
		t.Errorf("got %v/%s, want legacy/Windows-1252", c.Kind, c.Encoding)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr error
	}{
		{"clean", []byte("a,b"), "a,b", nil},
		{"bom stripped", []byte("\xEF\xBB\xBFa,b"), "a,b", nil},
		{"two patterns allowed", []byte("CafÃ© MÃ¼nchen"), "CafÃ© MÃ¼nchen", nil},
		{"latin1 rejected", []byte("caf\xE9"), "", ErrNotUTF8},
		{"mojibake rejected", []byte("MÃ¼nchen, KÃ¶ln, CafÃ©"), "", ErrDoubleEncoded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				var encErr *EncodingError
				if !errors.As(err, &encErr) {
					t.Fatalf("error %T is not *EncodingError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodingErrorMessage(t *testing.T) {
	_, err := Validate([]byte("caf\xE9"))
	want := "File is not encoded in UTF-8. Please convert your file to UTF-8 before importing. " +
		"Common tools: iconv, dos2unix, or save as UTF-8 in your editor."
	if err == nil || err.Error() != want {
		t.Errorf("got %v, want %q", err, want)
	}
}

func TestConverterFor(t *testing.T) {
	tests := []struct {
		mode    string
		want    Converter
		wantErr bool
	}{
		{"", Basic{}, false},
		{"basic", Basic{}, false},
		{"STRICT", Strict{}, false},
		{"none", Passthrough{}, false},
		{"guess", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got, err := ConverterFor(tt.mode, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		input   string
		want    Name
		wantErr bool
	}{
		{"utf-8", UTF8, false},
		{"UTF8", UTF8, false},
		{"cp1252", Windows1252, false},
		{"Windows-1252", Windows1252, false},
		{"latin1", ISO88591, false},
		{"ISO-8859-15", ISO885915, false},
		{"utf-16le", UTF16LE, false},
		{"Shift_JIS", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Lookup(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedEncoding) {
					t.Errorf("error = %v, want ErrUnsupportedEncoding", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Lookup(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestValidIn(t *testing.T) {
	if !ValidIn("café", ISO88591) {
		t.Error("café should be valid ISO-8859-1")
	}
	if ValidIn("€", ISO88591) {
		t.Error("€ has no ISO-8859-1 byte")
	}
	if !ValidIn("€", ISO885915) {
		t.Error("€ is valid ISO-8859-15")
	}
	if ValidIn("caf\xE9", UTF8) {
		t.Error("raw latin1 byte is not valid UTF-8")
	}
}
