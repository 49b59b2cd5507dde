package middleware

// spec.go builds pipelines from a declarative TOML description:
//
//	[[middleware]]
//	type = "formula_injection"
//	escape_char = "'"
//
//	[[middleware]]
//	type = "encoding_check"
//	action = "fix"
//	fallback_encoding = "ISO-8859-1"

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
)

// Spec describes one unit. Options a unit does not use are ignored; nil
// pointers select the unit's defaults.
type Spec struct {
	Type                string   `toml:"type"`
	Fields              []string `toml:"fields"`
	Pattern             *string  `toml:"pattern"`
	EscapeChar          *string  `toml:"escape_char"`
	InjectionCharacters *string  `toml:"injection_characters"`
	Characters          *string  `toml:"characters"`
	Encoding            string   `toml:"encoding"`
	FallbackEncoding    string   `toml:"fallback_encoding"`
	Action              string   `toml:"action"`
	FixMojibake         bool     `toml:"fix_mojibake"`
}

type specFile struct {
	Middleware []Spec `toml:"middleware"`
}

// LoadSpecs reads unit specs from a TOML file.
func LoadSpecs(path string) ([]Spec, error) {
	var f specFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return f.Middleware, nil
}

// ParseSpecs reads unit specs from TOML text.
func ParseSpecs(data string) ([]Spec, error) {
	var f specFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return f.Middleware, nil
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		return &ConfigurationError{Unit: "pipeline", Option: "key", Value: keys[0].String()}
	}
	return nil
}

// Build constructs the unit a spec describes. logger is handed to units
// that log; nil means slog.Default().
func Build(s Spec, logger *slog.Logger) (Unit, error) {
	switch normalizeType(s.Type) {
	case "formulainjection":
		opts := FormulaInjectionOptions{}
		if err := setString(&opts.InjectionCharacters, s.InjectionCharacters, NameFormulaInjection, "injection_characters"); err != nil {
			return Unit{}, err
		}
		if err := setString(&opts.EscapeChar, s.EscapeChar, NameFormulaInjection, "escape_char"); err != nil {
			return Unit{}, err
		}
		return FormulaInjection(opts)

	case "datetime":
		opts := DatetimeOptions{}
		if err := setString(&opts.Pattern, s.Pattern, NameDatetime, "pattern"); err != nil {
			return Unit{}, err
		}
		if err := setString(&opts.EscapeChar, s.EscapeChar, NameDatetime, "escape_char"); err != nil {
			return Unit{}, err
		}
		return Datetime(opts)

	case "textfield":
		opts := TextFieldOptions{Fields: s.Fields}
		if err := setString(&opts.EscapeChar, s.EscapeChar, NameTextField, "escape_char"); err != nil {
			return Unit{}, err
		}
		return TextField(opts)

	case "trimfield":
		opts := TrimFieldOptions{Fields: s.Fields}
		if err := setString(&opts.Characters, s.Characters, NameTrimField, "characters"); err != nil {
			return Unit{}, err
		}
		return TrimField(opts)

	case "encodingcheck":
		return EncodingCheck(EncodingCheckOptions{
			Encoding:         s.Encoding,
			Action:           Action(s.Action),
			FallbackEncoding: s.FallbackEncoding,
			FixMojibake:      s.FixMojibake,
			Logger:           logger,
		})
	}
	return Unit{}, &ConfigurationError{Unit: "pipeline", Option: "type", Value: s.Type}
}

// BuildPipeline constructs every spec and registers the units in order.
func BuildPipeline(specs []Spec, logger *slog.Logger) (*Pipeline, error) {
	p := &Pipeline{}
	for _, s := range specs {
		u, err := Build(s, logger)
		if err != nil {
			return nil, err
		}
		if err := p.Register(u); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// normalizeType accepts "formula_injection", "FormulaInjection",
// "formula-injection" and the like.
func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.NewReplacer("_", "", "-", "", " ", "").Replace(t)
	return strings.TrimSuffix(t, "middleware")
}

// setString copies an explicitly configured option, rejecting empty values.
func setString(dst *string, src *string, unit, option string) error {
	if src == nil {
		return nil
	}
	if *src == "" {
		return &ConfigurationError{Unit: unit, Option: option, Value: ""}
	}
	*dst = *src
	return nil
}
