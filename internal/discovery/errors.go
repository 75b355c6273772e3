package discovery

import (
	"errors"
	"fmt"
)

// ErrScanIO marks a traversal failure. It is fatal to the scan call.
var ErrScanIO = errors.New("scan i/o failure")

// ParseError reports one artifact that could not be parsed. The scan logs
// it and carries on.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable artifact %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func scanIOError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrScanIO, op, path, err)
}
