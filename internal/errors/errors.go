// Package errors provides a lightweight structured error type
// (TrackerError) for category-based classification in the CLI and the
// publisher daemon.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a worktracker error for classification
type ErrorCategory string

const (
	// User-facing configuration errors
	CategoryConfig ErrorCategory = "config"

	// Persisted counter errors (I/O, corruption, invariant violation)
	CategoryStore ErrorCategory = "store"

	// Session-state query failed; degrades to idle, non-fatal
	CategoryIdleSource ErrorCategory = "idlesource"

	// Broker unreachable or publish failed; retried by the loop
	CategoryNetwork ErrorCategory = "network"

	// Anything that escaped the closed set above
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// TrackerError is a structured error with category, severity, and cause
type TrackerError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *TrackerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *TrackerError) Unwrap() error {
	return e.Cause
}

// New creates a new TrackerError
func New(category ErrorCategory, severity ErrorSeverity, message string) *TrackerError {
	return &TrackerError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new TrackerError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *TrackerError {
	return &TrackerError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if te, ok := err.(*TrackerError); ok {
		return te.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a TrackerError
func GetCategory(err error) ErrorCategory {
	if te, ok := err.(*TrackerError); ok {
		return te.Category
	}
	return CategoryInternal
}

// ConfigError creates a fatal configuration error
func ConfigError(message string) *TrackerError {
	return &TrackerError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// StoreError wraps a storage-layer failure
func StoreError(err error, message string) *TrackerError {
	return &TrackerError{
		Category: CategoryStore,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// IdleSourceError wraps a session-state query failure (non-fatal)
func IdleSourceError(err error, message string) *TrackerError {
	return &TrackerError{
		Category: CategoryIdleSource,
		Severity: SeverityWarning,
		Message:  message,
		Cause:    err,
	}
}

// NetworkError wraps a broker connectivity or publish failure
func NetworkError(err error, message string) *TrackerError {
	return &TrackerError{
		Category: CategoryNetwork,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}
