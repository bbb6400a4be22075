package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a stored record (preset, run) does not exist.
var ErrNotFound = errors.New("record not found")

// ParseError reports that no usable numeric data could be extracted from file content.
type ParseError struct {
	Source string // format tag or file name
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Msg)
}

// ValidationError reports a bad parameter or malformed input.
type ValidationError struct {
	Param string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Param == "" {
		return e.Msg
	}
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Msg)
}

// EmptyRangeError reports that a frequency filter selected no points.
type EmptyRangeError struct {
	Min float64
	Max float64
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("no points in range from %g to %g", e.Min, e.Max)
}

// ComputationError reports a numeric failure (zero variance, singular system).
type ComputationError struct {
	Op  string
	Msg string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// NewValidationError constructs a ValidationError.
func NewValidationError(param, format string, args ...any) error {
	return &ValidationError{Param: param, Msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err (or anything it wraps) is caused by the
// submitted data or parameters rather than by the server.
func IsInputError(err error) bool {
	var (
		parseErr *ParseError
		valErr   *ValidationError
		rangeErr *EmptyRangeError
		compErr  *ComputationError
	)
	return errors.As(err, &parseErr) ||
		errors.As(err, &valErr) ||
		errors.As(err, &rangeErr) ||
		errors.As(err, &compErr)
}
