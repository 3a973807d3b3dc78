package httpserver

import (
	"time"

	"github.com/helixir/research-report-service/internal/domain"
)

// Request bodies. Validation tags are checked by the RequestValidator.

type queryRequest struct {
	Query string `json:"query" validate:"notblank"`
}

type suggestPromptRequest struct {
	InitialQuery string `json:"initialQuery" validate:"notblank"`
}

type analyzePaperRequest struct {
	Abstract string `json:"abstract" validate:"notblank"`
}

type saveSearchRequest struct {
	Query               string         `json:"query" validate:"notblank"`
	Papers              []domain.Paper `json:"papers"`
	ConsolidatedSummary string         `json:"consolidatedSummary"`
}

// Response types for JSON serialization.

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type recordResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Papers    []domain.Paper `json:"papers"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
}

type generateReportResponse struct {
	Report      string                 `json:"report"`
	Papers      []domain.PaperAnalysis `json:"papers"`
	SavedReport recordResponse         `json:"savedReport"`
}

type analyzePaperResponse struct {
	Summary string `json:"summary"`
}

type saveSearchResponse struct {
	SavedSearch recordResponse `json:"savedSearch"`
	Message     string         `json:"message"`
}

type listReportsResponse struct {
	Reports       []recordResponse `json:"reports"`
	NextPageToken string           `json:"next_page_token,omitempty"`
	TotalCount    int              `json:"total_count"`
}

// Converter functions

// domainRecordToResponse converts a stored record. Reports carry null papers;
// searches always carry an array.
func domainRecordToResponse(r domain.StoredRecord) recordResponse {
	papers := r.Papers
	if r.Type == domain.RecordTypeSearch && papers == nil {
		papers = []domain.Paper{}
	}
	return recordResponse{
		ID:        r.ID.String(),
		UserID:    r.UserID.String(),
		Title:     r.Title,
		Content:   r.Content,
		Papers:    papers,
		Type:      string(r.Type),
		CreatedAt: r.CreatedAt,
	}
}

func domainAnalysesToResponse(analyses []domain.PaperAnalysis) []domain.PaperAnalysis {
	if analyses == nil {
		return []domain.PaperAnalysis{}
	}
	return analyses
}
