package core

// tokenizer.go splits delimited text into logical lines and fields.
//
// A line delimiter or field delimiter inside an enclosure is literal, and a
// doubled enclosure inside an enclosure is one literal enclosure. Quoting
// only starts at the beginning of a field; an enclosure in the middle of an
// unquoted field is kept as is, and text after a closing enclosure is
// appended to the field. Zero-length lines are skipped.

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

type tokenizer struct {
	r       *bufio.Reader
	dialect Dialect
	encLen  int
	field   strings.Builder
}

func newTokenizer(r io.Reader, d Dialect) *tokenizer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &tokenizer{
		r:       br,
		dialect: d,
		encLen:  utf8.RuneLen(d.Enclosure),
	}
}

// next returns the fields of the next non-empty logical line, or io.EOF.
func (t *tokenizer) next() ([]string, error) {
	for {
		fields, empty, err := t.readLine()
		if !empty {
			return fields, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// readLine consumes one logical line. empty is true when the line held no
// characters at all. A non-nil err is only returned together with empty.
func (t *tokenizer) readLine() (fields []string, empty bool, err error) {
	var (
		inQuotes   bool
		fieldStart = true
		consumed   int
	)
	t.field.Reset()
	d := t.dialect

	endField := func() {
		fields = append(fields, t.field.String())
		t.field.Reset()
		fieldStart = true
	}

	for {
		c, size, rerr := t.r.ReadRune()
		if rerr != nil {
			if consumed == 0 {
				return nil, true, rerr
			}
			if rerr != io.EOF {
				return nil, true, rerr
			}
			endField()
			return fields, false, nil
		}

		if c == utf8.RuneError && size == 1 {
			// Keep undecodable bytes as they are.
			_ = t.r.UnreadRune()
			b, _ := t.r.ReadByte()
			t.field.WriteByte(b)
			fieldStart = false
			consumed++
			continue
		}

		if inQuotes {
			if c == d.Enclosure {
				if t.peekIs(string(d.Enclosure)) {
					_, _ = t.r.Discard(t.encLen)
					t.field.WriteRune(c)
					consumed += 2
					continue
				}
				inQuotes = false
				consumed++
				continue
			}
			t.field.WriteRune(c)
			consumed++
			continue
		}

		if t.atLineDelimiter(c, size) {
			if consumed == 0 {
				return nil, true, nil
			}
			endField()
			return fields, false, nil
		}

		// A CR right before LF (or EOF) is part of a CRLF line ending.
		if c == '\r' && d.LineDelimiter == "\n" {
			if b, perr := t.r.Peek(1); perr == io.EOF || (perr == nil && b[0] == '\n') {
				continue
			}
		}

		consumed++
		switch {
		case c == d.Delimiter:
			endField()
		case d.Enclosure != NoEnclosure && c == d.Enclosure && fieldStart:
			inQuotes = true
			fieldStart = false
		default:
			t.field.WriteRune(c)
			fieldStart = false
		}
	}
}

// atLineDelimiter reports whether rune c (already read) starts the line
// delimiter, consuming the rest of it if so.
func (t *tokenizer) atLineDelimiter(c rune, size int) bool {
	ld := t.dialect.LineDelimiter
	first, firstSize := utf8.DecodeRuneInString(ld)
	if c != first || size != firstSize {
		return false
	}
	rest := ld[firstSize:]
	if rest == "" {
		return true
	}
	if !t.peekIs(rest) {
		return false
	}
	_, _ = t.r.Discard(len(rest))
	return true
}

func (t *tokenizer) peekIs(s string) bool {
	b, err := t.r.Peek(len(s))
	return err == nil && string(b) == s
}

// tokenize splits text into the fields of every non-empty logical line.
func tokenize(text string, d Dialect) ([][]string, error) {
	t := newTokenizer(strings.NewReader(text), d)
	var lines [][]string
	for {
		fields, err := t.next()
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, fields)
	}
}
