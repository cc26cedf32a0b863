// Package util provides logging helpers and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the pipeline stages
var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrEndpointList   = errors.New("endpoint list unavailable")
	ErrRequestFailed  = errors.New("endpoint request failed")
	ErrFieldNotFound  = errors.New("field not found")
	ErrNotCompliant   = errors.New("value not compliant")
	ErrValidationFail = errors.New("validation failed")
)

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

// Is reports both ErrValidationFail and ErrInvalidConfig so callers can
// match on either.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFail || target == ErrInvalidConfig
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
