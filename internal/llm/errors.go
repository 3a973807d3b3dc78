package llm

import (
	"fmt"
	"net/http"

	"github.com/helixir/research-report-service/internal/domain"
)

// maxErrorMessageLen bounds the provider body excerpt kept in an APIError.
const maxErrorMessageLen = 512

// APIError represents an error returned by an LLM provider API.
type APIError struct {
	// Provider is the name of the LLM provider (e.g., "openai", "anthropic").
	Provider string
	// StatusCode is the HTTP status code returned by the API, or 0 when no response arrived.
	StatusCode int
	// Message is the error message from the API.
	Message string
	// Type is the error type classification from the API.
	Type string
	// Code is the provider-specific error code (if available).
	Code string
	// Err is the transport error when no response arrived.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap returns the transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the failure was a rate limit, a server error, or
// a network error. The service never retries; the flag only feeds logs.
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// upstream wraps an APIError in the domain's upstream error.
func upstream(apiErr *APIError) error {
	return domain.NewUpstreamError(domain.ProviderCompletion, apiErr.StatusCode, apiErr.Message, apiErr)
}

// networkError builds the APIError for a request that produced no response.
func networkError(provider string, err error) error {
	return upstream(&APIError{
		Provider: provider,
		Message:  fmt.Sprintf("request failed: %v", err),
		Type:     "network_error",
		Err:      err,
	})
}

func truncate(s string) string {
	if len(s) <= maxErrorMessageLen {
		return s
	}
	return s[:maxErrorMessageLen] + "..."
}
