package httpserver

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/repository"
)

const msgLoadFailed = "Failed to load reports"

// listReports handles GET /api/reports.
// It returns the caller's reports and saved searches, newest first.
func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)

	filter := domain.RecordFilter{
		Owner:  userFromRequest(r),
		Limit:  limit,
		Offset: offset,
	}

	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		recordType := domain.RecordType(typeParam)
		if !recordType.IsValid() {
			writeError(w, http.StatusBadRequest, "type must be one of [report search]")
			return
		}
		filter.Type = recordType
	}

	records, totalCount, err := s.svc.Records.ListByOwner(r.Context(), filter)
	if err != nil {
		s.writePipelineError(w, r, err, msgLoadFailed, msgLoadFailed)
		return
	}

	reports := make([]recordResponse, len(records))
	for i, rec := range records {
		reports[i] = domainRecordToResponse(rec)
	}

	writeJSON(w, http.StatusOK, listReportsResponse{
		Reports:       reports,
		NextPageToken: encodeHTTPPageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// getReport handles GET /api/reports/{reportID}.
func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseUUID(w, chi.URLParam(r, "reportID"), "report_id")
	if !ok {
		return
	}

	record, err := s.svc.Records.GetByID(r.Context(), userFromRequest(r), reportID)
	if err != nil {
		s.writePipelineError(w, r, err, msgLoadFailed, msgLoadFailed)
		return
	}

	writeJSON(w, http.StatusOK, domainRecordToResponse(record))
}

// parseUUID parses a UUID from a string, writing a 400 error response if invalid.
// The parse error details are not included to avoid echoing potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parsePaginationParams extracts page_size and page_token from query parameters.
// It applies default and maximum bounds to the page size.
func parsePaginationParams(r *http.Request) (limit, offset int) {
	limit = repository.DefaultPageSize
	if pageSizeStr := r.URL.Query().Get("page_size"); pageSizeStr != "" {
		if parsed, err := strconv.Atoi(pageSizeStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > repository.MaxPageSize {
		limit = repository.MaxPageSize
	}

	if pageToken := r.URL.Query().Get("page_token"); pageToken != "" {
		decoded, err := base64.StdEncoding.DecodeString(pageToken)
		if err == nil {
			if parsed, parseErr := strconv.Atoi(string(decoded)); parseErr == nil && parsed > 0 {
				offset = parsed
			}
		}
	}

	return limit, offset
}

// encodeHTTPPageToken encodes the next offset as a base64 page token.
// Returns an empty string if there are no more results.
func encodeHTTPPageToken(offset, limit, totalCount int) string {
	nextOffset := offset + limit
	if nextOffset < totalCount {
		return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(nextOffset)))
	}
	return ""
}
