package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvparser/internal/core"
	"github.com/JonMunkholm/csvparser/internal/encoding"
)

func TestEncodingCheckFix(t *testing.T) {
	u := mustUnit(t)(EncodingCheck(EncodingCheckOptions{
		Action:           ActionFix,
		FallbackEncoding: "ISO-8859-1",
	}))
	if u.Caps != ReadsRows {
		t.Errorf("caps = %v, want read only", u.Caps)
	}

	got, err := u.Read(core.Pairs("name", "\xE9", "ok", "fine"), core.RowContext{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v, _ := got.Get("name"); v != "é" {
		t.Errorf("name = %q, want %q", v, "é")
	}
	if v, _ := got.Get("ok"); v != "fine" {
		t.Errorf("valid field changed: %q", v)
	}
}

func TestEncodingCheckFixScrubsWhenFallbackFails(t *testing.T) {
	// Windows-1252 turns 0x80 into the euro sign, which ISO-8859-1 cannot
	// hold, so the original value is scrubbed instead.
	u := mustUnit(t)(EncodingCheck(EncodingCheckOptions{
		Encoding:         "ISO-8859-1",
		Action:           ActionFix,
		FallbackEncoding: "Windows-1252",
	}))
	got, _ := u.Read(core.Positional("a\x80 \xE9b"), core.RowContext{})
	if v := got.At(0); v != "a b" {
		t.Errorf("got %q, want %q", v, "a b")
	}
}

func TestEncodingCheckThrow(t *testing.T) {
	u := mustUnit(t)(EncodingCheck(EncodingCheckOptions{Action: ActionThrow}))

	_, err := u.Read(core.Pairs("id", "1", "city", "M\xFCnchen"), core.RowContext{Index: 4})
	var fe *FieldEncodingError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want *FieldEncodingError", err)
	}
	if fe.Field != "city" || fe.Row != 4 || fe.Encoding != encoding.UTF8 {
		t.Errorf("got %+v", fe)
	}
}

func TestEncodingCheckThrowAbortsParse(t *testing.T) {
	u := mustUnit(t)(EncodingCheck(EncodingCheckOptions{Action: ActionThrow}))
	pipeline, _ := NewPipeline(u)
	parser, err := core.NewParser(core.WithMiddleware(pipeline))
	if err != nil {
		t.Fatal(err)
	}

	_, err = parser.FromString("a,b\n1,2\n3,\xFF\n")
	var fe *FieldEncodingError
	if !errors.As(err, &fe) || fe.Row != 1 || fe.Field != "b" {
		t.Errorf("got %v", err)
	}
}

func TestEncodingCheckWarn(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	u := mustUnit(t)(EncodingCheck(EncodingCheckOptions{Logger: logger}))

	got, err := u.Read(core.Pairs("city", "M\xFCnchen"), core.RowContext{Index: 2})
	if err != nil {
		t.Fatalf("warn must not fail: %v", err)
	}
	if v, _ := got.Get("city"); v != "M\xFCnchen" {
		t.Errorf("warn changed the value: %q", v)
	}
	if !strings.Contains(logs.String(), "invalid encoding detected") || !strings.Contains(logs.String(), "field=city") {
		t.Errorf("missing warning, logs: %s", logs.String())
	}
}

func TestEncodingCheckFixMojibake(t *testing.T) {
	u := mustUnit(t)(EncodingCheck(EncodingCheckOptions{FixMojibake: true}))

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"three patterns repaired", "MÃ¼nchen, KÃ¶ln, CafÃ©", "München, Köln, Café"},
		{"two patterns untouched", "CafÃ© MÃ¼nchen", "CafÃ© MÃ¼nchen"},
		{"one pattern untouched", "MÃ¼nchen", "MÃ¼nchen"},
		{"clean untouched", "Zoë", "Zoë"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := u.Read(core.Pairs("city", tt.value), core.RowContext{})
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if v, _ := got.Get("city"); v != tt.want {
				t.Errorf("city = %q, want %q", v, tt.want)
			}
		})
	}

	off := mustUnit(t)(EncodingCheck(EncodingCheckOptions{}))
	got, _ := off.Read(core.Pairs("city", "MÃ¼nchen, KÃ¶ln, CafÃ©"), core.RowContext{})
	if v, _ := got.Get("city"); v != "MÃ¼nchen, KÃ¶ln, CafÃ©" {
		t.Errorf("repaired without fixMojibake: %q", v)
	}
}

func TestEncodingCheckConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		opts   EncodingCheckOptions
		option string
	}{
		{"unknown action", EncodingCheckOptions{Action: "explode"}, "action"},
		{"unknown encoding", EncodingCheckOptions{Encoding: "EBCDIC"}, "encoding"},
		{"unknown fallback", EncodingCheckOptions{FallbackEncoding: "KOI8-R"}, "fallbackEncoding"},
		{"multi-byte fallback", EncodingCheckOptions{FallbackEncoding: "UTF-16LE"}, "fallbackEncoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodingCheck(tt.opts)
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("got %v, want *ConfigurationError", err)
			}
			if ce.Option != tt.option {
				t.Errorf("option = %q, want %q", ce.Option, tt.option)
			}
		})
	}
}
