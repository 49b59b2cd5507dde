package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidDialect is wrapped by Dialect.Validate failures.
var ErrInvalidDialect = errors.New("invalid dialect")

// NoEnclosure disables quoting when used as a Dialect's Enclosure.
const NoEnclosure rune = 0

// Dialect describes how fields and lines are delimited.
type Dialect struct {
	Delimiter     rune
	Enclosure     rune
	LineDelimiter string
}

// DefaultDialect returns comma-separated, double-quoted, newline-terminated.
func DefaultDialect() Dialect {
	return Dialect{Delimiter: ',', Enclosure: '"', LineDelimiter: "\n"}
}

// Validate checks the dialect can be tokenized unambiguously.
func (d Dialect) Validate() error {
	switch {
	case d.Delimiter == 0 || d.Delimiter == utf8.RuneError:
		return fmt.Errorf("%w: delimiter must be a single character", ErrInvalidDialect)
	case d.Enclosure == utf8.RuneError:
		return fmt.Errorf("%w: enclosure must be a single character", ErrInvalidDialect)
	case d.Delimiter == d.Enclosure:
		return fmt.Errorf("%w: delimiter and enclosure are both %q", ErrInvalidDialect, d.Delimiter)
	case d.LineDelimiter == "":
		return fmt.Errorf("%w: line delimiter is empty", ErrInvalidDialect)
	case strings.ContainsRune(d.LineDelimiter, d.Delimiter):
		return fmt.Errorf("%w: line delimiter contains the field delimiter", ErrInvalidDialect)
	case d.Enclosure != NoEnclosure && strings.ContainsRune(d.LineDelimiter, d.Enclosure):
		return fmt.Errorf("%w: line delimiter contains the enclosure", ErrInvalidDialect)
	}
	return nil
}

// quote wraps v in the enclosure, doubling embedded enclosures.
func (d Dialect) quote(v string) string {
	if d.Enclosure == NoEnclosure {
		return v
	}
	enc := string(d.Enclosure)
	return enc + strings.ReplaceAll(v, enc, enc+enc) + enc
}

// formatLine renders one line of fields without the line delimiter.
func (d Dialect) formatLine(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteRune(d.Delimiter)
		}
		b.WriteString(d.quote(f))
	}
	return b.String()
}

// ParseRune converts a one-character option value to a rune. The empty
// string maps to NoEnclosure.
func ParseRune(s string) (rune, error) {
	if s == "" {
		return NoEnclosure, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("%w: %q is not a single character", ErrInvalidDialect, s)
	}
	return r, nil
}
