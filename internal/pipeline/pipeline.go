// Package pipeline orchestrates paper search, completion and persistence
// into the service's user-facing operations.
//
// Four pipelines share the same collaborators:
//
//   - ReportPipeline: search, per-paper analysis, synthesis, persistence
//   - SearchPipeline: search, per-paper summaries, consolidated summary, saved searches
//   - Analyzer: single abstract summary
//   - RefinementPipeline: structured query refinement plus research tags
//
// Per-paper completions fan out with errgroup and join all-or-nothing: the
// first failure cancels the remaining calls and no partial result is
// returned. An empty completion is not a failure; the call site substitutes
// its fallback text instead.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/llm"
	"github.com/helixir/research-report-service/internal/observability"
)

// Fallback texts substituted for empty completions.
const (
	FallbackSummary  = "Summary not available"
	FallbackAnalysis = "Analysis failed"
)

// Pipeline names used in logs and metrics.
const (
	pipelineReport     = "report"
	pipelineSearch     = "search"
	pipelineAnalyze    = "analyze"
	pipelineRefinement = "refinement"
	pipelineSaveSearch = "save_search"
)

// PaperSearcher finds papers for a query.
type PaperSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error)
}

// Completer generates text for a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error)
}

// RecordStore persists reports and saved searches.
type RecordStore interface {
	SaveReport(ctx context.Context, owner domain.UserID, title, content string) (domain.StoredRecord, error)
	SaveSearch(ctx context.Context, owner domain.UserID, title, summary string, papers []domain.Paper) (domain.StoredRecord, error)
}

// Config tunes the pipelines.
type Config struct {
	// ReportMaxResults is the number of papers fetched for a report.
	ReportMaxResults int
	// SearchMaxResults is the number of papers fetched for a plain search.
	SearchMaxResults int
	// MaxConcurrency caps concurrent per-paper completions. Zero means unbounded.
	MaxConcurrency int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ReportMaxResults: 5,
		SearchMaxResults: 10,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ReportMaxResults <= 0 {
		c.ReportMaxResults = d.ReportMaxResults
	}
	if c.SearchMaxResults <= 0 {
		c.SearchMaxResults = d.SearchMaxResults
	}
	if c.MaxConcurrency < 0 {
		c.MaxConcurrency = 0
	}
}

// Deps are the collaborators shared by all pipelines. Store is only required
// by pipelines that persist; Metrics may be nil.
type Deps struct {
	Source    PaperSearcher
	Completer Completer
	Store     RecordStore
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
}

// Completion settings per call site.
var (
	analysisOptions     = llm.CompletionOptions{Temperature: 0.3, MaxTokens: 500, Operation: "paper_analysis"}
	synthesisOptions    = llm.CompletionOptions{Temperature: 0.3, MaxTokens: 2000, Operation: "report_synthesis"}
	summaryOptions      = llm.CompletionOptions{Temperature: 0.3, MaxTokens: 300, Operation: "paper_summary"}
	consolidatedOptions = llm.CompletionOptions{Temperature: 0.3, MaxTokens: 1000, Operation: "consolidated_summary"}
	abstractOptions     = llm.CompletionOptions{Temperature: 0.3, MaxTokens: 300, Operation: "abstract_summary"}
	refinementOptions   = llm.CompletionOptions{Temperature: 0.7, MaxTokens: 1000, Operation: "query_refinement"}
	researchTagsOptions = llm.CompletionOptions{Temperature: 0.5, MaxTokens: 100, Operation: "research_tags"}
)

// mapConcurrent applies fn to every item concurrently and returns results in
// input order. The first error cancels the shared context and is returned
// alone; results are discarded. A limit of zero means unbounded.
func mapConcurrent[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// run tracks one pipeline invocation for metrics.
type run struct {
	name    string
	metrics *observability.Metrics
	start   time.Time
}

func startRun(name string, metrics *observability.Metrics) *run {
	metrics.RecordPipelineStarted(name)
	return &run{name: name, metrics: metrics, start: time.Now()}
}

func (r *run) elapsed() float64 { return time.Since(r.start).Seconds() }

func (r *run) succeed() { r.metrics.RecordPipelineCompleted(r.name, r.elapsed()) }

// fail records the failure and returns err unchanged.
func (r *run) fail(stage domain.Stage, err error) error {
	r.metrics.RecordPipelineFailed(r.name, string(stage), r.elapsed())
	return err
}

// completeWithFallback runs one completion and substitutes fallback when the
// model returns no text. Other errors are returned unchanged.
func completeWithFallback(ctx context.Context, deps Deps, logger zerolog.Logger, prompt string, opts llm.CompletionOptions, fallback string) (string, error) {
	text, err := deps.Completer.Complete(ctx, prompt, opts)
	if errors.Is(err, domain.ErrEmptyCompletion) || (err == nil && strings.TrimSpace(text) == "") {
		deps.Metrics.RecordDegradedOutput(opts.Operation)
		logger.Warn().Str("operation", opts.Operation).Msg("empty completion, using fallback")
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "is required")
	}
	return nil
}
