// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Callers test with errors.Is.
var (
	ErrInvalidEncoding      = errors.New("invalid encoding")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrValidationFailed     = errors.New("validation failed")
	ErrNotConnected         = errors.New("APPL_DB not connected")
)

// EncodingError describes a key or field that does not follow the APPL_DB
// grammar. It signals store corruption or a codec mismatch between writer
// and reader, so it is never skipped.
type EncodingError struct {
	What   string // "key", "group id", "replica field", "replica instance"
	Value  string
	Reason string
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("invalid %s '%s'", e.What, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *EncodingError) Unwrap() error {
	return ErrInvalidEncoding
}

// NewEncodingError creates a new encoding error
func NewEncodingError(what, value, reason string) *EncodingError {
	return &EncodingError{
		What:   what,
		Value:  value,
		Reason: reason,
	}
}

// UnsupportedOperationError reports an update kind or store operation the
// translator does not handle.
type UnsupportedOperationError struct {
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Operation)
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}

// NewUnsupportedOperationError creates an unsupported-operation error
func NewUnsupportedOperationError(operation string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Operation: operation}
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
