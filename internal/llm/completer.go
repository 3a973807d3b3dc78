// Package llm provides single-turn text completion clients for the supported
// language-model providers.
package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/helixir/research-report-service/internal/domain"
)

// Completer sends one prompt and returns the generated text.
//
// Implementations are stateless between calls, never retry, and are safe for
// concurrent use. Errors are classified as:
//   - *domain.UpstreamError for transport failures and non-2xx responses
//   - *domain.ParseError for a 2xx body that cannot be decoded
//   - domain.ErrEmptyCompletion for a 2xx body without usable text
//   - *domain.ValidationError for out-of-range options
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	// Provider returns the provider name (e.g. "openai").
	Provider() string
	// Model returns the model identifier.
	Model() string
}

// CompletionOptions controls a single completion call.
type CompletionOptions struct {
	// Temperature is the sampling temperature in [0, 1].
	Temperature float64
	// MaxTokens caps the generated output.
	MaxTokens int
	// Operation labels the call for metrics and logs (e.g. "paper_analysis").
	Operation string
}

// Validate checks option ranges.
func (o CompletionOptions) Validate() error {
	if o.Temperature < 0 || o.Temperature > 1 {
		return domain.NewValidationError("temperature", "must be between 0 and 1")
	}
	if o.MaxTokens <= 0 {
		return domain.NewValidationError("max_tokens", "must be positive")
	}
	return nil
}

// maxResponseBytes bounds provider response bodies.
const maxResponseBytes = 10 << 20

// defaultTimeout applies when a provider is built without one.
const defaultTimeout = 60 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
