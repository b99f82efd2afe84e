// Package apperr defines the error taxonomy shared by the catalog packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConstraint    = errors.New("constraint violation")
	ErrInference     = errors.New("inference service error")
	ErrConfiguration = errors.New("configuration error")
	ErrInvalidInput  = errors.New("invalid input")
	ErrLocked        = errors.New("catalog locked by another process")
)

// InferenceError reports a failed call to a metadata inference backend.
type InferenceError struct {
	Provider string
	Op       string
	Err      error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap lets errors.Is match both ErrInference and the cause.
func (e *InferenceError) Unwrap() []error {
	return []error{ErrInference, e.Err}
}

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Configuration wraps msg as a configuration error.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
