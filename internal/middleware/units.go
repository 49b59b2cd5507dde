package middleware

import (
	"cmp"
	"regexp"
	"strings"

	"github.com/JonMunkholm/csvparser/internal/core"
)

// Unit names as they appear in logs and pipeline files.
const (
	NameFormulaInjection = "formula_injection"
	NameDatetime         = "datetime"
	NameTextField        = "text_field"
	NameTrimField        = "trim_field"
	NameEncodingCheck    = "encoding_check"
)

// DefaultInjectionCharacters start a spreadsheet formula.
// See https://owasp.org/www-community/attacks/CSV_Injection
const DefaultInjectionCharacters = "=+-@"

// DefaultDatetimePattern matches 2023-10-15, 2023-10-15 14:30:00 and
// 2023-10-15T14:30:00.
const DefaultDatetimePattern = `\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}:\d{2})?`

// DefaultTrimCharacters are stripped by TrimField unless overridden.
const DefaultTrimCharacters = " \t\n\r\x00\x0B"

// FormulaInjectionOptions configures FormulaInjection. Empty strings select
// the defaults.
type FormulaInjectionOptions struct {
	InjectionCharacters string
	EscapeChar          string
}

// FormulaInjection escapes any value whose first non-blank character could
// start a formula, and removes that escape on read.
func FormulaInjection(opts FormulaInjectionOptions) (Unit, error) {
	chars := cmp.Or(opts.InjectionCharacters, DefaultInjectionCharacters)
	esc := cmp.Or(opts.EscapeChar, DefaultEscapeChar)

	re, err := regexp.Compile(`^[\s\x00\x0B]*` + charClass(chars))
	if err != nil {
		return Unit{}, &ConfigurationError{Unit: NameFormulaInjection, Option: "injectionCharacters", Value: chars, Err: err}
	}
	return escaper{match: re, escape: esc}.unit(NameFormulaInjection), nil
}

// DatetimeOptions configures Datetime. Pattern is matched against the whole
// value.
type DatetimeOptions struct {
	Pattern    string
	EscapeChar string
}

// Datetime escapes date-like values so spreadsheets keep them as typed.
func Datetime(opts DatetimeOptions) (Unit, error) {
	pattern := cmp.Or(opts.Pattern, DefaultDatetimePattern)
	esc := cmp.Or(opts.EscapeChar, DefaultEscapeChar)

	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return Unit{}, &ConfigurationError{Unit: NameDatetime, Option: "pattern", Value: pattern, Err: err}
	}
	return escaper{match: re, escape: esc}.unit(NameDatetime), nil
}

// TextFieldOptions configures TextField.
type TextFieldOptions struct {
	Fields     []string
	EscapeChar string
}

// TextField escapes every non-empty value of the named fields, so IDs and
// phone numbers stay text, and strips a leading escape on read.
func TextField(opts TextFieldOptions) (Unit, error) {
	esc := cmp.Or(opts.EscapeChar, DefaultEscapeChar)
	fields := append([]string(nil), opts.Fields...)

	return Unit{
		Name: NameTextField,
		Caps: ReadsRows | WritesRows,
		Write: func(rec core.Record, ctx core.RowContext) (core.Record, error) {
			return mapFields(rec, fields, ctx, func(v string) string {
				if v == "" {
					return v
				}
				return esc + v
			}), nil
		},
		Read: func(rec core.Record, ctx core.RowContext) (core.Record, error) {
			return mapFields(rec, fields, ctx, func(v string) string {
				return strings.TrimPrefix(v, esc)
			}), nil
		},
	}, nil
}

// TrimFieldOptions configures TrimField.
type TrimFieldOptions struct {
	Fields     []string
	Characters string
}

// TrimField strips Characters from both ends of the named fields on read
// and on write.
func TrimField(opts TrimFieldOptions) (Unit, error) {
	chars := cmp.Or(opts.Characters, DefaultTrimCharacters)
	fields := append([]string(nil), opts.Fields...)
	trim := func(rec core.Record, ctx core.RowContext) (core.Record, error) {
		return mapFields(rec, fields, ctx, func(v string) string {
			return strings.Trim(v, chars)
		}), nil
	}

	return Unit{
		Name:  NameTrimField,
		Caps:  ReadsRows | WritesRows,
		Read:  trim,
		Write: trim,
	}, nil
}
