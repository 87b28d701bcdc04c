package pipeline

import (
	"errors"

	"github.com/rotisserie/eris"
)

// SourceError wraps a failure confined to a single source document
// (unreadable file, extraction failure). The driver records it and moves on
// to the next source.
type SourceError struct {
	SourceID string
	Err      error
}

func (e *SourceError) Error() string {
	return "source " + e.SourceID + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError wraps an error as a per-source failure.
func NewSourceError(sourceID string, err error) *SourceError {
	return &SourceError{SourceID: sourceID, Err: err}
}

// IsSourceError returns true if the error (or any error in its chain) is a
// per-source failure rather than a run-fatal one.
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}

// FatalError aborts the whole run. Only unexpected conditions outside normal
// extraction noise (such as malformed configuration) qualify; validation
// rejections and duplicates are counters, never errors.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "fatal: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError wraps an error as run-fatal.
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

// Fatalf builds a run-fatal error from a format string.
func Fatalf(format string, args ...any) *FatalError {
	return &FatalError{Err: eris.Errorf(format, args...)}
}

// IsFatal returns true if the error chain contains a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
