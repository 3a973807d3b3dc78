package domain

// QuestionVariation is an alternative phrasing of the user's research question.
type QuestionVariation struct {
	Question    string `json:"question" validate:"notblank"`
	Explanation string `json:"explanation" validate:"notblank"`
}

// RefinementSuggestion is the structured advice returned for an initial query.
// Everything but ResearchTags comes from a single completion and is schema-checked
// before it reaches a caller.
type RefinementSuggestion struct {
	RefinedQuery       string              `json:"refinedQuery" validate:"notblank"`
	SuggestedElements  map[string][]string `json:"suggestedElements"`
	QuestionVariations []QuestionVariation `json:"questionVariations" validate:"dive"`
	RelatedConcepts    []string            `json:"relatedConcepts"`
	ResearchTags       []string            `json:"researchTags"`
}

// EnsureCollections replaces nil collections with empty ones so the JSON form
// always carries arrays and objects rather than null.
func (s *RefinementSuggestion) EnsureCollections() {
	if s.SuggestedElements == nil {
		s.SuggestedElements = map[string][]string{}
	}
	if s.QuestionVariations == nil {
		s.QuestionVariations = []QuestionVariation{}
	}
	if s.RelatedConcepts == nil {
		s.RelatedConcepts = []string{}
	}
	if s.ResearchTags == nil {
		s.ResearchTags = []string{}
	}
}
