package importer

import "errors"

// FormatError indicates the uploaded buffer is not a valid presentation
// package (not a zip container, or not readable as one). The import is
// aborted with no partial result.
type FormatError struct {
	Cause error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return "invalid presentation package: " + e.Cause.Error()
	}
	return "invalid presentation package"
}

func (e *FormatError) Unwrap() error { return e.Cause }

// EmptyPresentationError indicates the package opened fine but contains no
// slide parts. The import is aborted with no partial result.
type EmptyPresentationError struct{}

func (e *EmptyPresentationError) Error() string {
	return "presentation contains no slides"
}

// ErrCancelled is returned when the caller's context is cancelled between
// slide conversions. It is a distinct outcome, not an Error-stage failure.
var ErrCancelled = errors.New("import cancelled")
