package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// ReportResult is a generated, persisted report.
type ReportResult struct {
	Report   string
	Analyses []domain.PaperAnalysis
	Saved    domain.StoredRecord
}

// ReportPipeline turns a query into a persisted research report.
type ReportPipeline struct {
	deps   Deps
	config Config
	logger zerolog.Logger
}

// NewReportPipeline creates a ReportPipeline.
func NewReportPipeline(deps Deps, cfg Config) *ReportPipeline {
	cfg.applyDefaults()
	return &ReportPipeline{
		deps:   deps,
		config: cfg,
		logger: deps.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// Generate runs search, per-paper analysis, synthesis and persistence in
// order. Each step's failure is a *domain.StageError naming that step; no
// step is retried and nothing is returned unless the report was saved.
func (p *ReportPipeline) Generate(ctx context.Context, query string, user domain.UserID) (*ReportResult, error) {
	if err := requireText("query", query); err != nil {
		return nil, err
	}
	if user.IsZero() {
		return nil, domain.NewStageError(domain.StagePersistence, domain.NewMissingOwnerError("save report"))
	}

	logger := observability.WithPipelineContext(observability.LoggerFromContext(ctx, p.logger), pipelineReport, query)
	r := startRun(pipelineReport, p.deps.Metrics)

	papers, err := p.deps.Source.Search(ctx, query, p.config.ReportMaxResults)
	if err != nil {
		logger.Error().Err(err).Msg("paper search failed")
		return nil, r.fail(domain.StageSearch, domain.NewStageError(domain.StageSearch, err))
	}
	logger.Debug().Int("papers", len(papers)).Msg("papers fetched")

	analyses, err := mapConcurrent(ctx, papers, p.config.MaxConcurrency, p.analyze)
	if err != nil {
		logger.Error().Err(err).Msg("paper analysis failed")
		return nil, r.fail(domain.StageAnalysis, domain.NewStageError(domain.StageAnalysis, err))
	}

	report, err := p.deps.Completer.Complete(ctx, synthesisPrompt(query, analyses), synthesisOptions)
	if err == nil && strings.TrimSpace(report) == "" {
		err = domain.ErrEmptyCompletion
	}
	if err != nil {
		logger.Error().Err(err).Msg("report synthesis failed")
		return nil, r.fail(domain.StageSynthesis, domain.NewStageError(domain.StageSynthesis, err))
	}

	saved, err := p.deps.Store.SaveReport(ctx, user, query, report)
	if err != nil {
		p.deps.Metrics.RecordSave(string(domain.RecordTypeReport), "failure")
		logger.Error().Err(err).Msg("report save failed")
		return nil, r.fail(domain.StagePersistence, domain.NewStageError(domain.StagePersistence, err))
	}
	p.deps.Metrics.RecordSave(string(domain.RecordTypeReport), "success")

	r.succeed()
	logger.Info().
		Str("report_id", saved.ID.String()).
		Int("papers", len(papers)).
		Float64("duration_s", r.elapsed()).
		Msg("report generated")

	return &ReportResult{
		Report:   report,
		Analyses: analyses,
		Saved:    saved,
	}, nil
}

// analyze produces one paper's analysis. An empty completion degrades to
// FallbackAnalysis; any other error aborts the join.
func (p *ReportPipeline) analyze(ctx context.Context, paper domain.Paper) (domain.PaperAnalysis, error) {
	logger := observability.LoggerFromContext(ctx, p.logger)
	text, err := completeWithFallback(ctx, p.deps, logger, analysisPrompt(paper), analysisOptions, FallbackAnalysis)
	if err != nil {
		return domain.PaperAnalysis{}, err
	}
	return domain.PaperAnalysis{Paper: paper, Analysis: text}, nil
}
