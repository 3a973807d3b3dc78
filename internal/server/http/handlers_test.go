package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/research-report-service/internal/auth"
	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/pipeline"
)

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("response is not a JSON object: %v: %s", err, body)
	}
	return m
}

var apiRoutes = []struct {
	method string
	path   string
	body   string
}{
	{http.MethodPost, "/api/search-papers", `{"query":"q"}`},
	{http.MethodPost, "/api/generate-report", `{"query":"q"}`},
	{http.MethodPost, "/api/suggest-prompt", `{"initialQuery":"q"}`},
	{http.MethodPost, "/api/analyze-paper", `{"abstract":"a"}`},
	{http.MethodPost, "/api/save-search", `{"query":"q","papers":[]}`},
	{http.MethodGet, "/api/reports", ""},
	{http.MethodGet, "/api/reports/" + uuid.NewString(), ""},
}

func TestAPI_RejectsUnauthenticatedRequests(t *testing.T) {
	for _, route := range apiRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			ts := newTestServices()
			ts.auth.err = auth.Reject(auth.ReasonInvalidToken, nil)

			rr := doRequest(t, ts.handler(), route.method, route.path, route.body)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			body := decodeBody(t, rr.Body.Bytes())
			if body["error"] != "unauthorized" {
				t.Errorf("expected error 'unauthorized', got %v", body["error"])
			}
			if body["details"] != auth.ReasonInvalidToken {
				t.Errorf("expected details %q, got %v", auth.ReasonInvalidToken, body["details"])
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
			if ts.pipelineCalls() != 0 {
				t.Errorf("expected no pipeline calls, got %d", ts.pipelineCalls())
			}
		})
	}
}

func TestAPI_IdentityProviderFailure(t *testing.T) {
	ts := newTestServices()
	ts.auth.err = domain.NewUpstreamError(domain.ProviderIdentity, 502, "bad gateway", nil)

	rr := doRequest(t, ts.handler(), http.MethodPost, "/api/search-papers", `{"query":"q"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if ts.search.calls != 0 {
		t.Error("search must not run when identity lookup fails")
	}
}

func TestAPI_PassesAuthorizationHeader(t *testing.T) {
	ts := newTestServices()

	doRequest(t, ts.handler(), http.MethodPost, "/api/search-papers", `{"query":"q"}`)

	if ts.auth.lastHeader != "Bearer test-token" {
		t.Errorf("unexpected header %q", ts.auth.lastHeader)
	}
}

func TestAPI_RejectsBlankRequiredFields(t *testing.T) {
	tests := []struct {
		path    string
		body    string
		wantErr string
	}{
		{"/api/search-papers", `{}`, "query is required"},
		{"/api/search-papers", `{"query":"   "}`, "query is required"},
		{"/api/generate-report", `{"query":""}`, "query is required"},
		{"/api/suggest-prompt", `{"initialQuery":"\n"}`, "initialQuery is required"},
		{"/api/analyze-paper", `{}`, "abstract is required"},
		{"/api/save-search", `{"papers":[]}`, "query is required"},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.body, func(t *testing.T) {
			ts := newTestServices()

			rr := doRequest(t, ts.handler(), http.MethodPost, tt.path, tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if got := decodeBody(t, rr.Body.Bytes())["error"]; got != tt.wantErr {
				t.Errorf("expected error %q, got %v", tt.wantErr, got)
			}
			if ts.pipelineCalls() != 0 {
				t.Errorf("expected no pipeline calls, got %d", ts.pipelineCalls())
			}
		})
	}
}

func TestAPI_RejectsMalformedBodies(t *testing.T) {
	ts := newTestServices()
	h := ts.handler()

	rr := doRequest(t, h, http.MethodPost, "/api/generate-report", `{"query":`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON: expected 400, got %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodPost, "/api/generate-report", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty body: expected 400, got %d", rr.Code)
	}

	big := `{"query":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	rr = doRequest(t, h, http.MethodPost, "/api/generate-report", big)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body: expected 413, got %d", rr.Code)
	}

	if ts.reports.calls != 0 {
		t.Errorf("expected no pipeline calls, got %d", ts.reports.calls)
	}
}

func TestSearchPapers_ZeroResults(t *testing.T) {
	ts := newTestServices()

	rr := doRequest(t, ts.handler(), http.MethodPost, "/api/search-papers", `{"query":"nothing matches"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	want := `{"papers":[],"summaries":[],"consolidatedSummary":""}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSearchPapers_ReturnsPipelineResult(t *testing.T) {
	ts := newTestServices()
	ts.search.searchFn = func(_ context.Context, query string) (*pipeline.SearchResult, error) {
		return &pipeline.SearchResult{
			Papers:              []domain.Paper{{Title: "T", Authors: []string{"A"}, Abstract: "B", Link: "L"}},
			Summaries:           []string{"S"},
			ConsolidatedSummary: "overview of " + query,
		}, nil
	}

	rr := doRequest(t, ts.handler(), http.MethodPost, "/api/search-papers", `{"query":"graphs"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr.Body.Bytes())
	if body["consolidatedSummary"] != "overview of graphs" {
		t.Errorf("unexpected consolidatedSummary %v", body["consolidatedSummary"])
	}
	if papers, _ := body["papers"].([]any); len(papers) != 1 {
		t.Errorf("expected 1 paper, got %v", body["papers"])
	}
}

func TestGenerateReport_Success(t *testing.T) {
	ts := newTestServices()
	ts.auth.user = "user-42"
	reportID := uuid.New()

	var gotUser domain.UserID
	ts.reports.fn = func(_ context.Context, query string, user domain.UserID) (*pipeline.ReportResult, error) {
		gotUser = user
		return &pipeline.ReportResult{
			Report:   "# Report",
			Analyses: []domain.PaperAnalysis{{Paper: domain.Paper{Title: "A"}, Analysis: "S"}},
			Saved: domain.StoredRecord{
				ID: reportID, UserID: user, Title: query, Content: "# Report",
				Type: domain.RecordTypeReport, CreatedAt: time.Now(),
			},
		}, nil
	}

	rr := doRequest(t, ts.handler(), http.MethodPost, "/api/generate-report", `{"query":"quantum computing"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotUser != "user-42" {
		t.Errorf("expected pipeline to run for user-42, got %q", gotUser)
	}

	var resp generateReportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Report != "# Report" {
		t.Errorf("unexpected report %q", resp.Report)
	}
	if len(resp.Papers) != 1 || resp.Papers[0].Analysis != "S" {
		t.Errorf("unexpected papers %+v", resp.Papers)
	}
	if resp.SavedReport.ID != reportID.String() || resp.SavedReport.Title != "quantum computing" || resp.SavedReport.UserID != "user-42" {
		t.Errorf("unexpected savedReport %+v", resp.SavedReport)
	}
}

func TestGenerateReport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"search", domain.NewStageError(domain.StageSearch, errors.New("arxiv down")), 500, "Failed to search papers"},
		{"analysis", domain.NewStageError(domain.StageAnalysis, errors.New("llm down")), 500, "Failed to analyze papers"},
		{"synthesis", domain.NewStageError(domain.StageSynthesis, domain.ErrEmptyCompletion), 500, "Failed to generate report"},
		{"persistence", domain.NewStageError(domain.StagePersistence, domain.NewPersistenceError("save report", errors.New("insert rejected"))), 500, "Failed to save report"},
		{"unclassified", errors.New("boom"), 500, "Failed to generate report"},
		{"validation", domain.NewValidationError("query", "is required"), 400, "query is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServices()
			ts.reports.fn = func(context.Context, string, domain.UserID) (*pipeline.ReportResult, error) {
				return nil, tt.err
			}

			rr := doRequest(t, ts.handler(), http.MethodPost, "/api/generate-report", `{"query":"q"}`)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			body := decodeBody(t, rr.Body.Bytes())
			if body["error"] != tt.wantError {
				t.Errorf("expected error %q, got %v", tt.wantError, body["error"])
			}
			if tt.wantStatus == 500 && body["details"] != tt.err.Error() {
				t.Errorf("expected details %q, got %v", tt.err.Error(), body["details"])
			}
		})
	}
}

func TestGenerateReport_SaveFailureDoesNotMentionGeneration(t *testing.T) {
	ts := newTestServices()
	ts.reports.fn = func(context.Context, string, domain.UserID) (*pipeline.ReportResult, error) {
		return nil, domain.NewStageError(domain.StagePersistence, domain.NewPersistenceError("save report", errors.New("insert rejected")))
	}

	rr := doRequest(t, ts.handler(), http.MethodPost, "/api/generate-report", `{"query":"q"}`)

	msg, _ := decodeBody(t, rr.Body.Bytes())["error"].(string)
	if !strings.Contains(strings.ToLower(msg), "save") {
		t.Errorf("expected save failure text, got %q", msg)
	}
	if strings.Contains(strings.ToLower(msg), "generate") {
		t.Errorf("save failure must not read as generation failure: %q", msg)
	}
}

func TestSuggestPrompt(t *testing.T) {
	t.Run("returns suggestion", func(t *testing.T) {
		ts := newTestServices()
		ts.refiner.fn = func(_ context.Context, q string) (*domain.RefinementSuggestion, error) {
			s := &domain.RefinementSuggestion{
				RefinedQuery: "refined " + q,
				ResearchTags: []string{"Specificity", "Research type", "Practical application"},
			}
			s.EnsureCollections()
			return s, nil
		}

		rr := doRequest(t, ts.handler(), http.MethodPost, "/api/suggest-prompt", `{"initialQuery":"sleep"}`)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		body := decodeBody(t, rr.Body.Bytes())
		if body["refinedQuery"] != "refined sleep" {
			t.Errorf("unexpected refinedQuery %v", body["refinedQuery"])
		}
		tags, _ := body["researchTags"].([]any)
		if len(tags) != 3 || tags[1] != "Research type" {
			t.Errorf("unexpected researchTags %v", body["researchTags"])
		}
		if _, ok := body["relatedConcepts"].([]any); !ok {
			t.Errorf("relatedConcepts must be an array, got %v", body["relatedConcepts"])
		}
	})

	for name, err := range map[string]error{
		"malformed": domain.NewStageError(domain.StageRefinement, errors.New("no JSON object")),
		"upstream":  domain.NewUpstreamError(domain.ProviderCompletion, 503, "overloaded", nil),
	} {
		t.Run(name, func(t *testing.T) {
			ts := newTestServices()
			ts.refiner.fn = func(context.Context, string) (*domain.RefinementSuggestion, error) { return nil, err }

			rr := doRequest(t, ts.handler(), http.MethodPost, "/api/suggest-prompt", `{"initialQuery":"sleep"}`)

			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rr.Code)
			}
			if got := decodeBody(t, rr.Body.Bytes())["error"]; got != "Failed to generate prompt suggestions" {
				t.Errorf("unexpected error %v", got)
			}
		})
	}
}

func TestAnalyzePaper(t *testing.T) {
	ts := newTestServices()
	ts.analyzer.fn = func(_ context.Context, abstract string) (string, error) {
		return "plain: " + abstract, nil
	}

	rr := doRequest(t, ts.handler(), http.MethodPost, "/api/analyze-paper", `{"abstract":"We study X."}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeBody(t, rr.Body.Bytes())["summary"]; got != "plain: We study X." {
		t.Errorf("unexpected summary %v", got)
	}
}

func TestSaveSearch(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ts := newTestServices()
		var gotPapers []domain.Paper
		var gotSummary string
		ts.search.saveFn = func(_ context.Context, user domain.UserID, query string, papers []domain.Paper, summary string) (domain.StoredRecord, error) {
			gotPapers, gotSummary = papers, summary
			return domain.StoredRecord{ID: uuid.New(), UserID: user, Title: query, Content: summary, Papers: papers, Type: domain.RecordTypeSearch}, nil
		}

		rr := doRequest(t, ts.handler(), http.MethodPost, "/api/save-search",
			`{"query":"graphs","papers":[{"title":"T","authors":["A"],"abstract":"B","link":"L"}],"consolidatedSummary":"overview"}`)

		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		if len(gotPapers) != 1 || gotPapers[0].Title != "T" || gotSummary != "overview" {
			t.Errorf("unexpected save input: %+v %q", gotPapers, gotSummary)
		}

		var resp saveSearchResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Message != "Search saved successfully" {
			t.Errorf("unexpected message %q", resp.Message)
		}
		if resp.SavedSearch.Type != "search" || resp.SavedSearch.UserID != "user-1" {
			t.Errorf("unexpected savedSearch %+v", resp.SavedSearch)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		ts := newTestServices()
		ts.search.saveFn = func(context.Context, domain.UserID, string, []domain.Paper, string) (domain.StoredRecord, error) {
			return domain.StoredRecord{}, domain.NewStageError(domain.StagePersistence, domain.NewPersistenceError("save search", errors.New("down")))
		}

		rr := doRequest(t, ts.handler(), http.MethodPost, "/api/save-search", `{"query":"graphs"}`)

		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
		if got := decodeBody(t, rr.Body.Bytes())["error"]; got != "Failed to save search" {
			t.Errorf("unexpected error %v", got)
		}
	})
}
