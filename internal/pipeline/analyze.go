package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// Analyzer summarizes a single abstract.
type Analyzer struct {
	deps   Deps
	logger zerolog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(deps Deps) *Analyzer {
	return &Analyzer{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "pipeline").Str("pipeline", pipelineAnalyze).Logger(),
	}
}

// AnalyzeAbstract returns a plain-language summary of abstract, or
// FallbackSummary when the model returns nothing.
func (a *Analyzer) AnalyzeAbstract(ctx context.Context, abstract string) (string, error) {
	if err := requireText("abstract", abstract); err != nil {
		return "", err
	}

	logger := observability.LoggerFromContext(ctx, a.logger)
	r := startRun(pipelineAnalyze, a.deps.Metrics)

	summary, err := completeWithFallback(ctx, a.deps, logger, abstractPrompt(abstract), abstractOptions, FallbackSummary)
	if err != nil {
		logger.Error().Err(err).Msg("abstract analysis failed")
		return "", r.fail(domain.StageAnalysis, domain.NewStageError(domain.StageAnalysis, err))
	}

	r.succeed()
	return summary, nil
}
