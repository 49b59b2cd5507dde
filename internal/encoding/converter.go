package encoding

import (
	"fmt"
	"log/slog"
	"strings"
)

// Converter turns raw file bytes into the text the tokenizer consumes.
type Converter interface {
	Convert(raw []byte) ([]byte, error)
}

// Basic is the best-effort converter. It never returns an error.
type Basic struct {
	Logger *slog.Logger
}

// Convert normalizes raw and logs any repair it performed.
func (b Basic) Convert(raw []byte) ([]byte, error) {
	out, rep := NormalizeReport(raw)
	if rep.Repaired || rep.Classification.Kind != ValidUTF8 {
		logger := b.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Debug("input normalized",
			"kind", rep.Classification.Kind.String(),
			"encoding", rep.Classification.Encoding,
			"repaired_with", rep.RepairedWith,
			"dropped_bytes", rep.DroppedBytes,
		)
	}
	return out, nil
}

// Strict rejects input that is not clean UTF-8.
type Strict struct{}

// Convert validates raw; see Validate.
func (Strict) Convert(raw []byte) ([]byte, error) {
	return Validate(raw)
}

// Passthrough hands raw bytes to the tokenizer untouched.
type Passthrough struct{}

func (Passthrough) Convert(raw []byte) ([]byte, error) {
	return raw, nil
}

// ConverterFor maps a mode name ("basic", "strict" or "none") to a Converter.
func ConverterFor(mode string, logger *slog.Logger) (Converter, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "basic":
		return Basic{Logger: logger}, nil
	case "strict":
		return Strict{}, nil
	case "none", "off":
		return Passthrough{}, nil
	}
	return nil, fmt.Errorf("%w: unknown mode %q (want basic, strict or none)", ErrUnsupportedEncoding, mode)
}
