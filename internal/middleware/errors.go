package middleware

import (
	"fmt"

	"github.com/JonMunkholm/csvparser/internal/encoding"
)

// ConfigurationError reports an invalid unit option. It is returned by the
// unit constructors, before any row is processed.
type ConfigurationError struct {
	Unit   string
	Option string
	Value  string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: middleware %s: invalid %s %q", e.Unit, e.Option, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// FieldEncodingError aborts a read when EncodingCheck runs with ActionThrow.
type FieldEncodingError struct {
	Field    string
	Row      int
	Encoding encoding.Name
}

func (e *FieldEncodingError) Error() string {
	return fmt.Sprintf("invalid encoding detected in row %d for field %q: expected %s", e.Row, e.Field, e.Encoding)
}
