package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/llm"
	"github.com/helixir/research-report-service/internal/observability"
)

// SearchResult is the response of a paper search.
type SearchResult struct {
	Papers              []domain.Paper `json:"papers"`
	Summaries           []string       `json:"summaries"`
	ConsolidatedSummary string         `json:"consolidatedSummary"`
}

// SearchPipeline searches papers, summarizes them and saves searches.
type SearchPipeline struct {
	deps   Deps
	config Config
	logger zerolog.Logger
}

// NewSearchPipeline creates a SearchPipeline.
func NewSearchPipeline(deps Deps, cfg Config) *SearchPipeline {
	cfg.applyDefaults()
	return &SearchPipeline{
		deps:   deps,
		config: cfg,
		logger: deps.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// Search returns papers with one summary each (in paper order) and a
// consolidated summary. Zero papers yields empty arrays, an empty
// consolidated summary and no completion calls.
func (p *SearchPipeline) Search(ctx context.Context, query string) (*SearchResult, error) {
	if err := requireText("query", query); err != nil {
		return nil, err
	}

	logger := observability.WithPipelineContext(observability.LoggerFromContext(ctx, p.logger), pipelineSearch, query)
	r := startRun(pipelineSearch, p.deps.Metrics)

	papers, err := p.deps.Source.Search(ctx, query, p.config.SearchMaxResults)
	if err != nil {
		logger.Error().Err(err).Msg("paper search failed")
		return nil, r.fail(domain.StageSearch, domain.NewStageError(domain.StageSearch, err))
	}

	if len(papers) == 0 {
		r.succeed()
		logger.Info().Msg("no papers found")
		return &SearchResult{
			Papers:    []domain.Paper{},
			Summaries: []string{},
		}, nil
	}

	summaries, err := mapConcurrent(ctx, papers, p.config.MaxConcurrency, func(ctx context.Context, paper domain.Paper) (string, error) {
		return p.summarize(ctx, summaryPrompt(paper), summaryOptions)
	})
	if err != nil {
		logger.Error().Err(err).Msg("paper summaries failed")
		return nil, r.fail(domain.StageAnalysis, domain.NewStageError(domain.StageAnalysis, err))
	}

	consolidated, err := p.summarize(ctx, consolidatedPrompt(query, papers, summaries), consolidatedOptions)
	if err != nil {
		logger.Error().Err(err).Msg("consolidated summary failed")
		return nil, r.fail(domain.StageAnalysis, domain.NewStageError(domain.StageAnalysis, err))
	}

	r.succeed()
	logger.Info().
		Int("papers", len(papers)).
		Float64("duration_s", r.elapsed()).
		Msg("search completed")

	return &SearchResult{
		Papers:              papers,
		Summaries:           summaries,
		ConsolidatedSummary: consolidated,
	}, nil
}

// SaveSearch persists a search for user. The query becomes the record title
// and the consolidated summary its content.
func (p *SearchPipeline) SaveSearch(ctx context.Context, user domain.UserID, query string, papers []domain.Paper, consolidatedSummary string) (domain.StoredRecord, error) {
	if err := requireText("query", query); err != nil {
		return domain.StoredRecord{}, err
	}

	logger := observability.WithPipelineContext(observability.LoggerFromContext(ctx, p.logger), pipelineSaveSearch, query)
	r := startRun(pipelineSaveSearch, p.deps.Metrics)

	normalized := make([]domain.Paper, 0, len(papers))
	for _, paper := range papers {
		normalized = append(normalized, paper.Normalize())
	}

	saved, err := p.deps.Store.SaveSearch(ctx, user, query, consolidatedSummary, normalized)
	if err != nil {
		p.deps.Metrics.RecordSave(string(domain.RecordTypeSearch), "failure")
		logger.Error().Err(err).Msg("search save failed")
		return domain.StoredRecord{}, r.fail(domain.StagePersistence, domain.NewStageError(domain.StagePersistence, err))
	}
	p.deps.Metrics.RecordSave(string(domain.RecordTypeSearch), "success")

	r.succeed()
	logger.Info().Str("record_id", saved.ID.String()).Int("papers", len(normalized)).Msg("search saved")
	return saved, nil
}

// summarize runs one summary completion, substituting FallbackSummary for
// empty output.
func (p *SearchPipeline) summarize(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	logger := observability.LoggerFromContext(ctx, p.logger)
	return completeWithFallback(ctx, p.deps, logger, prompt, opts, FallbackSummary)
}
