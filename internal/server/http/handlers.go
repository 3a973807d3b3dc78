package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/observability"
)

const maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies

// Client-facing failure messages per pipeline stage.
const (
	msgSearchFailed     = "Failed to search papers"
	msgAnalysisFailed   = "Failed to analyze papers"
	msgReportFailed     = "Failed to generate report"
	msgSaveReportFailed = "Failed to save report"
	msgSaveSearchFailed = "Failed to save search"
	msgSuggestFailed    = "Failed to generate prompt suggestions"
	msgAnalyzeFailed    = "Failed to analyze paper"
)

// searchPapers handles POST /api/search-papers.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.svc.Search.Search(r.Context(), req.Query)
	if err != nil {
		s.writePipelineError(w, r, err, msgSearchFailed, msgSearchFailed)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// generateReport handles POST /api/generate-report.
func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.svc.Reports.Generate(r.Context(), req.Query, userFromRequest(r))
	if err != nil {
		s.writePipelineError(w, r, err, msgSaveReportFailed, msgReportFailed)
		return
	}

	writeJSON(w, http.StatusOK, generateReportResponse{
		Report:      result.Report,
		Papers:      domainAnalysesToResponse(result.Analyses),
		SavedReport: domainRecordToResponse(result.Saved),
	})
}

// suggestPrompt handles POST /api/suggest-prompt.
func (s *Server) suggestPrompt(w http.ResponseWriter, r *http.Request) {
	var req suggestPromptRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	suggestion, err := s.svc.Refiner.Suggest(r.Context(), req.InitialQuery)
	if err != nil {
		s.writePipelineError(w, r, err, msgSuggestFailed, msgSuggestFailed)
		return
	}

	writeJSON(w, http.StatusOK, suggestion)
}

// analyzePaper handles POST /api/analyze-paper.
func (s *Server) analyzePaper(w http.ResponseWriter, r *http.Request) {
	var req analyzePaperRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	summary, err := s.svc.Analyzer.AnalyzeAbstract(r.Context(), req.Abstract)
	if err != nil {
		s.writePipelineError(w, r, err, msgAnalyzeFailed, msgAnalyzeFailed)
		return
	}

	writeJSON(w, http.StatusOK, analyzePaperResponse{Summary: summary})
}

// saveSearch handles POST /api/save-search.
func (s *Server) saveSearch(w http.ResponseWriter, r *http.Request) {
	var req saveSearchRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	saved, err := s.svc.Search.SaveSearch(r.Context(), userFromRequest(r), req.Query, req.Papers, req.ConsolidatedSummary)
	if err != nil {
		s.writePipelineError(w, r, err, msgSaveSearchFailed, msgSaveSearchFailed)
		return
	}

	writeJSON(w, http.StatusCreated, saveSearchResponse{
		SavedSearch: domainRecordToResponse(saved),
		Message:     "Search saved successfully",
	})
}

// decodeRequest reads a size-limited JSON body into dst and validates it.
// It writes a 400 response and returns false on failure.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if len(body) > maxRequestBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.svc.Validator.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// writePipelineError maps pipeline and domain errors to a status code and a
// client-facing message. Stage failures get their stage message; saveMsg is
// used for persistence failures and fallback for anything unclassified.
// The error chain is returned as details.
func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error, saveMsg, fallback string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeValidationError(w, err)
		return
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}

	msg := fallback
	switch {
	case errors.Is(err, domain.ErrSearchFailed):
		msg = msgSearchFailed
	case errors.Is(err, domain.ErrAnalysisFailed):
		msg = msgAnalysisFailed
	case errors.Is(err, domain.ErrReportGenerationFailed):
		msg = msgReportFailed
	case errors.Is(err, domain.ErrSaveFailed):
		msg = saveMsg
	case errors.Is(err, domain.ErrMalformedSuggestion):
		msg = msgSuggestFailed
	}

	logger := observability.LoggerFromContext(r.Context(), s.logger)
	logger.Error().
		Err(err).
		Str("path", r.URL.Path).
		Msg(msg)
	writeErrorDetails(w, http.StatusInternalServerError, msg, err.Error())
}

// writeValidationError writes a 400 naming the offending field.
func writeValidationError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Field+" "+ve.Message)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid input")
}
