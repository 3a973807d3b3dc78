package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// InstrumentedCompleter records metrics and debug logs around another Completer.
type InstrumentedCompleter struct {
	next    Completer
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewInstrumentedCompleter wraps next. A nil metrics value disables recording.
func NewInstrumentedCompleter(next Completer, metrics *observability.Metrics, logger zerolog.Logger) *InstrumentedCompleter {
	return &InstrumentedCompleter{
		next:    next,
		metrics: metrics,
		logger:  logger.With().Str("component", "llm").Str("provider", next.Provider()).Logger(),
	}
}

// Complete delegates to the wrapped Completer.
func (c *InstrumentedCompleter) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	start := time.Now()
	text, err := c.next.Complete(ctx, prompt, opts)
	elapsed := time.Since(start).Seconds()

	op := opts.Operation
	if op == "" {
		op = "unspecified"
	}

	if err != nil {
		errType := ClassifyError(err)
		c.metrics.RecordLLMRequestFailed(op, c.next.Model(), errType, elapsed)
		c.logger.Debug().
			Err(err).
			Str("operation", op).
			Str("error_type", errType).
			Float64("duration_s", elapsed).
			Msg("completion failed")
		return "", err
	}

	c.metrics.RecordLLMRequest(op, c.next.Model(), elapsed)
	c.logger.Debug().
		Str("operation", op).
		Int("output_chars", len(text)).
		Float64("duration_s", elapsed).
		Msg("completion succeeded")
	return text, nil
}

// Provider returns the wrapped provider name.
func (c *InstrumentedCompleter) Provider() string { return c.next.Provider() }

// Model returns the wrapped model identifier.
func (c *InstrumentedCompleter) Model() string { return c.next.Model() }

// ClassifyError maps a completion error to a short metric label.
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrEmptyCompletion):
		return "empty"
	case errors.Is(err, domain.ErrParse):
		return "parse"
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	default:
		return "unknown"
	}
}
