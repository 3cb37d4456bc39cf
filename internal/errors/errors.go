// Package errors provides a lightweight structured error type (ChronoError)
// for category-based classification of storage, snapshot and configuration failures.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a chronodeck error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Persistence errors
	CategoryStorage  ErrorCategory = "storage"
	CategorySnapshot ErrorCategory = "snapshot"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ChronoError is a structured error with category, severity, and context
type ChronoError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ChronoError
type ContextFields map[string]any

// Error implements the error interface
func (e *ChronoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ChronoError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ChronoError) WithContext(key string, value any) *ChronoError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ChronoError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ChronoError {
	return &ChronoError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new ChronoError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ChronoError {
	return &ChronoError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As finds the first ChronoError in err's chain.
func As(err error) (*ChronoError, bool) {
	var ce *ChronoError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsCategory checks if an error (or anything it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ce, ok := As(err); ok {
		return ce.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a ChronoError
func GetCategory(err error) ErrorCategory {
	if ce, ok := As(err); ok {
		return ce.Category
	}
	return CategoryInternal
}
