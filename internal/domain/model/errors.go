package model

import (
	"errors"
	"fmt"
)

// ValidationError reports bad user input that is caught before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NetworkError wraps a failed or timed out fetch.
type NetworkError struct {
	Op      string
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: timed out: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataShapeError reports a payload that is missing or mistypes an expected property.
type DataShapeError struct {
	Property string
	Reason   string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("unexpected data shape for %q: %s", e.Property, e.Reason)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is, or wraps, a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsDataShape reports whether err is, or wraps, a DataShapeError.
func IsDataShape(err error) bool {
	var target *DataShapeError
	return errors.As(err, &target)
}

// Retryable reports whether repeating the same request may succeed.
func Retryable(err error) bool {
	return IsNetwork(err)
}
