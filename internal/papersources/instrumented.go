package papersources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// InstrumentedSource records metrics and logs around another PaperSource.
type InstrumentedSource struct {
	next    PaperSource
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewInstrumentedSource wraps next. A nil metrics value disables recording.
func NewInstrumentedSource(next PaperSource, metrics *observability.Metrics, logger zerolog.Logger) *InstrumentedSource {
	return &InstrumentedSource{
		next:    next,
		metrics: metrics,
		logger:  logger.With().Str("component", "papersources").Str("source", next.Name()).Logger(),
	}
}

// Search delegates to the wrapped source.
func (s *InstrumentedSource) Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	start := time.Now()
	papers, err := s.next.Search(ctx, query, maxResults)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		errType := classify(err)
		s.metrics.RecordSourceRequestFailed(s.next.Name(), errType, elapsed)
		s.logger.Warn().
			Err(err).
			Str("error_type", errType).
			Float64("duration_s", elapsed).
			Msg("paper search failed")
		return nil, err
	}

	s.metrics.RecordSourceRequest(s.next.Name(), len(papers), elapsed)
	s.logger.Debug().
		Int("papers", len(papers)).
		Int("max_results", maxResults).
		Float64("duration_s", elapsed).
		Msg("paper search completed")
	return papers, nil
}

// Name returns the wrapped source name.
func (s *InstrumentedSource) Name() string { return s.next.Name() }

func classify(err error) string {
	var uerr *domain.UpstreamError
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &uerr) && uerr.StatusCode > 0:
		return fmt.Sprintf("http_%d", uerr.StatusCode)
	case errors.Is(err, domain.ErrUpstream):
		return "network"
	case errors.Is(err, domain.ErrParse):
		return "parse"
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	default:
		return "unknown"
	}
}
