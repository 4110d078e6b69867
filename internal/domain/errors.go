package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery signals a missing or blank search query.
	ErrEmptyQuery = errors.New("query is required")
	// ErrInvalidRequest signals a malformed request body or parameter.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrModelNotConfigured signals that no credential is configured for the language model.
	ErrModelNotConfigured = errors.New("language model API key not configured")
	// ErrModelProviderError signals a language model transport or API failure.
	ErrModelProviderError = errors.New("language model provider error")
	// ErrCatalogueUnavailable signals a failed catalogue call. Search recovers from it with the fallback catalogue.
	ErrCatalogueUnavailable = errors.New("catalogue unavailable")
	// ErrRateLimited signals that a local outbound budget was exhausted.
	ErrRateLimited = errors.New("rate limited")
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError wraps ErrInvalidRequest with the offending fields.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidRequest.Error()
	}
	f := e.Fields[0]
	return fmt.Sprintf("%s: field %q failed %q", ErrInvalidRequest.Error(), f.Field, f.Rule)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// NewValidationError creates a validation error for the given fields.
func NewValidationError(fields ...FieldError) error {
	return &ValidationError{Fields: fields}
}

// CatalogueError wraps ErrCatalogueUnavailable with a short machine-readable reason
// (timeout, status_503, malformed_response, circuit_open, rate_limited).
type CatalogueError struct {
	Reason string
	Err    error
}

func (e *CatalogueError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrCatalogueUnavailable.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", ErrCatalogueUnavailable.Error(), e.Reason, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *CatalogueError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCatalogueUnavailable}
	}
	return []error{ErrCatalogueUnavailable, e.Err}
}

// NewCatalogueError creates a catalogue error with the given reason and cause.
func NewCatalogueError(reason string, err error) error {
	return &CatalogueError{Reason: reason, Err: err}
}
