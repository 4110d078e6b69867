package tplsearch

import (
	"fmt"

	"github.com/kailas-cloud/tplsearch/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery         = domain.ErrEmptyQuery
	ErrInvalidRequest     = domain.ErrInvalidRequest
	ErrModelNotConfigured = domain.ErrModelNotConfigured
	ErrModelProviderError = domain.ErrModelProviderError
	ErrRateLimited        = domain.ErrRateLimited
)

// codeSentinels maps API error codes to sentinel errors.
var codeSentinels = map[string]error{
	"empty_query":          ErrEmptyQuery,
	"validation_failed":    ErrInvalidRequest,
	"bad_request":          ErrInvalidRequest,
	"model_not_configured": ErrModelNotConfigured,
	"model_provider_error": ErrModelProviderError,
	"rate_limited":         ErrRateLimited,
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("tplsearch: http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tplsearch: http %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the error code to a sentinel so errors.Is works across the wire.
func (e *APIError) Unwrap() error {
	return codeSentinels[e.Code]
}
