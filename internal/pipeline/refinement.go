package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

// errNoJSONObject reports completion text without a {...} object.
var errNoJSONObject = errors.New("no JSON object in completion")

// StructValidator checks decoded values against their validate tags.
type StructValidator interface {
	Struct(s any) error
}

// RefinementPipeline suggests a sharper research question for a rough query.
type RefinementPipeline struct {
	deps      Deps
	validator StructValidator
	logger    zerolog.Logger
}

// NewRefinementPipeline creates a RefinementPipeline.
func NewRefinementPipeline(deps Deps, validator StructValidator) *RefinementPipeline {
	return &RefinementPipeline{
		deps:      deps,
		validator: validator,
		logger:    deps.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// Suggest requests the structured suggestion and the research tags
// concurrently. A suggestion that cannot be extracted, decoded or validated
// is a refinement StageError; tag failures only empty the tag list.
func (p *RefinementPipeline) Suggest(ctx context.Context, initialQuery string) (*domain.RefinementSuggestion, error) {
	if err := requireText("initialQuery", initialQuery); err != nil {
		return nil, err
	}

	logger := observability.WithPipelineContext(observability.LoggerFromContext(ctx, p.logger), pipelineRefinement, initialQuery)
	r := startRun(pipelineRefinement, p.deps.Metrics)

	var (
		suggestion *domain.RefinementSuggestion
		tags       []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		text, err := p.deps.Completer.Complete(gctx, refinementPrompt(initialQuery), refinementOptions)
		if errors.Is(err, domain.ErrEmptyCompletion) {
			return domain.NewStageError(domain.StageRefinement, err)
		}
		if err != nil {
			return err
		}
		suggestion, err = ParseSuggestion(text, p.validator)
		return err
	})

	g.Go(func() error {
		tags = p.ResearchTags(gctx, initialQuery)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("query refinement failed")
		return nil, r.fail(domain.StageRefinement, err)
	}

	suggestion.ResearchTags = tags
	suggestion.EnsureCollections()

	r.succeed()
	logger.Info().
		Int("question_variations", len(suggestion.QuestionVariations)).
		Int("research_tags", len(suggestion.ResearchTags)).
		Msg("refinement suggested")

	return suggestion, nil
}

// ResearchTags asks for a comma-separated tag list. Any failure yields an
// empty, non-nil slice.
func (p *RefinementPipeline) ResearchTags(ctx context.Context, query string) []string {
	text, err := p.deps.Completer.Complete(ctx, researchTagsPrompt(query), researchTagsOptions)
	if err != nil {
		// Cancelled alongside a failed suggestion; nothing degraded.
		if ctx.Err() != nil {
			return []string{}
		}
		p.deps.Metrics.RecordDegradedOutput(researchTagsOptions.Operation)
		logger := observability.LoggerFromContext(ctx, p.logger)
		logger.Warn().Err(err).Msg("research tags unavailable")
		return []string{}
	}
	return ParseTags(text)
}

// ParseTags splits a comma-separated list, trimming entries and dropping
// empty ones. Order is preserved.
func ParseTags(text string) []string {
	tags := []string{}
	for _, part := range strings.Split(text, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ParseSuggestion extracts the JSON object from completion text, decodes it
// and validates it. Failures are refinement StageErrors.
func ParseSuggestion(text string, v StructValidator) (*domain.RefinementSuggestion, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, domain.NewStageError(domain.StageRefinement, err)
	}

	var s domain.RefinementSuggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, domain.NewStageError(domain.StageRefinement, err)
	}

	if err := v.Struct(&s); err != nil {
		return nil, domain.NewStageError(domain.StageRefinement, err)
	}

	s.EnsureCollections()
	return &s, nil
}

// extractJSONObject strips Markdown code fences and returns the text from the
// first '{' to the last '}'.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// drop the info string, e.g. "json"
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", errNoJSONObject
	}
	return text[start : end+1], nil
}
