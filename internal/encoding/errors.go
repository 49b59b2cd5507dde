package encoding

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by EncodingError.
var (
	ErrNotUTF8       = errors.New("input is not valid UTF-8")
	ErrDoubleEncoded = errors.New("input contains double-encoded characters")
)

// EncodingError is returned by strict validation. Its message tells the
// user how to fix the file; use errors.Is with ErrNotUTF8 or
// ErrDoubleEncoded to tell the causes apart.
type EncodingError struct {
	Err          error
	PatternCount int
}

func (e *EncodingError) Error() string {
	switch {
	case errors.Is(e.Err, ErrDoubleEncoded):
		return fmt.Sprintf("File appears to contain double-encoded (mojibake) characters (%d found). "+
			"Please re-export the file as UTF-8 from the original source instead of converting it twice.",
			e.PatternCount)
	default:
		return "File is not encoded in UTF-8. Please convert your file to UTF-8 before importing. " +
			"Common tools: iconv, dos2unix, or save as UTF-8 in your editor."
	}
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
