package middleware

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/csvparser/internal/core"
)

// DefaultEscapeChar is prepended to values a spreadsheet must treat as text.
const DefaultEscapeChar = "'"

// escaper prefixes values matching a pattern on write and strips the prefix
// on read.
//
// A value that already starts with the escape and would be unescaped on read
// is escaped once more on write, so read(write(v)) == v for every v.
type escaper struct {
	match  *regexp.Regexp
	escape string
}

func (e escaper) needsEscape(v string) bool {
	return e.match.MatchString(v) || e.isEscaped(v)
}

func (e escaper) isEscaped(v string) bool {
	rest, ok := strings.CutPrefix(v, e.escape)
	return ok && e.needsEscape(rest)
}

func (e escaper) write(rec core.Record, _ core.RowContext) (core.Record, error) {
	for i := 0; i < rec.Len(); i++ {
		if v := rec.At(i); e.needsEscape(v) {
			rec.SetAt(i, e.escape+v)
		}
	}
	return rec, nil
}

func (e escaper) read(rec core.Record, _ core.RowContext) (core.Record, error) {
	for i := 0; i < rec.Len(); i++ {
		if v := rec.At(i); e.isEscaped(v) {
			rec.SetAt(i, v[len(e.escape):])
		}
	}
	return rec, nil
}

func (e escaper) unit(name string) Unit {
	return Unit{
		Name:  name,
		Caps:  ReadsRows | WritesRows,
		Read:  e.read,
		Write: e.write,
	}
}

// charClass builds a regexp character class matching any rune of chars.
func charClass(chars string) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range chars {
		if strings.ContainsRune(`\]^-[`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte(']')
	return b.String()
}
