package core

import (
	"errors"
	"fmt"
)

// ErrInvalidResource is returned before any byte is written when a stream
// sink is not a usable writer.
var ErrInvalidResource = errors.New("invalid resource: sink is not an open writable stream")

// IOError reports a failure to open, read or write a file.
type IOError struct {
	Op   string // "open", "read", "write", "close"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
