package middleware

import (
	"cmp"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/csvparser/internal/core"
	"github.com/JonMunkholm/csvparser/internal/encoding"
)

// Action selects what EncodingCheck does with an invalid field.
type Action string

const (
	ActionWarn  Action = "warn"
	ActionThrow Action = "throw"
	ActionFix   Action = "fix"
)

// EncodingCheckOptions configures EncodingCheck. Zero values select UTF-8,
// ActionWarn and Windows-1252.
type EncodingCheckOptions struct {
	Encoding         string
	Action           Action
	FallbackEncoding string
	// FixMojibake repairs double-encoded values that are otherwise valid.
	FixMojibake bool
	Logger      *slog.Logger
}

type encodingCheck struct {
	target      encoding.Name
	fallback    encoding.Name
	action      Action
	fixMojibake bool
	logger      *slog.Logger
}

// EncodingCheck validates every field of each row read against the target
// encoding. It does not take part in writes.
func EncodingCheck(opts EncodingCheckOptions) (Unit, error) {
	target, err := encoding.Lookup(cmp.Or(opts.Encoding, string(encoding.UTF8)))
	if err != nil {
		return Unit{}, &ConfigurationError{Unit: NameEncodingCheck, Option: "encoding", Value: opts.Encoding, Err: err}
	}

	fallback, err := encoding.Lookup(cmp.Or(opts.FallbackEncoding, string(encoding.Windows1252)))
	if err != nil {
		return Unit{}, &ConfigurationError{Unit: NameEncodingCheck, Option: "fallbackEncoding", Value: opts.FallbackEncoding, Err: err}
	}
	if !encoding.IsSingleByte(fallback) {
		return Unit{}, &ConfigurationError{Unit: NameEncodingCheck, Option: "fallbackEncoding", Value: opts.FallbackEncoding}
	}

	action := Action(strings.ToLower(string(cmp.Or(opts.Action, ActionWarn))))
	switch action {
	case ActionWarn, ActionThrow, ActionFix:
	default:
		return Unit{}, &ConfigurationError{Unit: NameEncodingCheck, Option: "action", Value: string(opts.Action)}
	}

	c := &encodingCheck{
		target:      target,
		fallback:    fallback,
		action:      action,
		fixMojibake: opts.FixMojibake,
		logger:      cmp.Or(opts.Logger, slog.Default()),
	}
	return Unit{
		Name: NameEncodingCheck,
		Caps: ReadsRows,
		Read: c.read,
	}, nil
}

func (c *encodingCheck) read(rec core.Record, ctx core.RowContext) (core.Record, error) {
	for i := 0; i < rec.Len(); i++ {
		v := rec.At(i)

		if encoding.ValidIn(v, c.target) {
			if c.fixMojibake {
				if fixed, ok := encoding.RepairDoubleEncodingWith(v, c.fallback); ok && encoding.ValidIn(fixed, c.target) {
					rec.SetAt(i, fixed)
				}
			}
			continue
		}

		switch c.action {
		case ActionThrow:
			return core.Record{}, &FieldEncodingError{Field: fieldName(rec, i), Row: ctx.Index, Encoding: c.target}
		case ActionFix:
			rec.SetAt(i, c.fix(v))
		default:
			c.logger.Warn("invalid encoding detected",
				"row", ctx.Index,
				"field", fieldName(rec, i),
				"expected", c.target,
			)
		}
	}
	return rec, nil
}

// fix reinterprets v's bytes as the fallback encoding. If that still is not
// valid in the target, undecodable sequences are scrubbed instead.
func (c *encodingCheck) fix(v string) string {
	if decoded, err := encoding.Decode([]byte(v), c.fallback); err == nil && encoding.ValidIn(decoded, c.target) {
		return decoded
	}
	return scrub(v, c.target)
}

// scrub drops invalid UTF-8 and any rune the target cannot represent.
func scrub(v string, target encoding.Name) string {
	v = strings.ToValidUTF8(v, "")
	if encoding.ValidIn(v, target) {
		return v
	}
	var b strings.Builder
	for _, r := range v {
		if encoding.ValidIn(string(r), target) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
