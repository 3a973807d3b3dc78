package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/database"
	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/pipeline"
	"github.com/helixir/research-report-service/internal/validation"
)

// ---------------------------------------------------------------------------
// Stub collaborators
// ---------------------------------------------------------------------------

type stubAuth struct {
	user       domain.UserID
	err        error
	lastHeader string
}

func (a *stubAuth) Authenticate(_ context.Context, header string) (domain.UserID, error) {
	a.lastHeader = header
	return a.user, a.err
}

type stubReports struct {
	fn    func(ctx context.Context, query string, user domain.UserID) (*pipeline.ReportResult, error)
	calls int
}

func (s *stubReports) Generate(ctx context.Context, query string, user domain.UserID) (*pipeline.ReportResult, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, query, user)
	}
	return &pipeline.ReportResult{}, nil
}

type stubSearch struct {
	searchFn func(ctx context.Context, query string) (*pipeline.SearchResult, error)
	saveFn   func(ctx context.Context, user domain.UserID, query string, papers []domain.Paper, summary string) (domain.StoredRecord, error)
	calls    int
}

func (s *stubSearch) Search(ctx context.Context, query string) (*pipeline.SearchResult, error) {
	s.calls++
	if s.searchFn != nil {
		return s.searchFn(ctx, query)
	}
	return &pipeline.SearchResult{Papers: []domain.Paper{}, Summaries: []string{}}, nil
}

func (s *stubSearch) SaveSearch(ctx context.Context, user domain.UserID, query string, papers []domain.Paper, summary string) (domain.StoredRecord, error) {
	s.calls++
	if s.saveFn != nil {
		return s.saveFn(ctx, user, query, papers, summary)
	}
	return domain.StoredRecord{ID: uuid.New(), UserID: user, Title: query, Type: domain.RecordTypeSearch}, nil
}

type stubRefiner struct {
	fn    func(ctx context.Context, q string) (*domain.RefinementSuggestion, error)
	calls int
}

func (s *stubRefiner) Suggest(ctx context.Context, q string) (*domain.RefinementSuggestion, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, q)
	}
	out := &domain.RefinementSuggestion{RefinedQuery: q}
	out.EnsureCollections()
	return out, nil
}

type stubAnalyzer struct {
	fn    func(ctx context.Context, abstract string) (string, error)
	calls int
}

func (s *stubAnalyzer) AnalyzeAbstract(ctx context.Context, abstract string) (string, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, abstract)
	}
	return "summary", nil
}

type stubRecords struct {
	listFn func(ctx context.Context, filter domain.RecordFilter) ([]domain.StoredRecord, int64, error)
	getFn  func(ctx context.Context, owner domain.UserID, id uuid.UUID) (domain.StoredRecord, error)
}

func (s *stubRecords) ListByOwner(ctx context.Context, filter domain.RecordFilter) ([]domain.StoredRecord, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (s *stubRecords) GetByID(ctx context.Context, owner domain.UserID, id uuid.UUID) (domain.StoredRecord, error) {
	if s.getFn != nil {
		return s.getFn(ctx, owner, id)
	}
	return domain.StoredRecord{}, domain.NewNotFoundError("report", id.String())
}

type stubHealth struct {
	status database.HealthStatus
}

func (s *stubHealth) Health(context.Context) database.HealthStatus { return s.status }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testServices struct {
	auth     *stubAuth
	reports  *stubReports
	search   *stubSearch
	refiner  *stubRefiner
	analyzer *stubAnalyzer
	records  *stubRecords
	health   *stubHealth
}

func newTestServices() *testServices {
	return &testServices{
		auth:     &stubAuth{user: "user-1"},
		reports:  &stubReports{},
		search:   &stubSearch{},
		refiner:  &stubRefiner{},
		analyzer: &stubAnalyzer{},
		records:  &stubRecords{},
		health:   &stubHealth{status: database.HealthStatus{Status: "healthy"}},
	}
}

func (ts *testServices) services() Services {
	return Services{
		Reports:   ts.reports,
		Search:    ts.search,
		Refiner:   ts.refiner,
		Analyzer:  ts.analyzer,
		Records:   ts.records,
		Auth:      ts.auth,
		Health:    ts.health,
		Validator: validation.New(),
	}
}

func (ts *testServices) handler() http.Handler {
	return NewServer(Config{Address: ":0"}, ts.services(), zerolog.Nop()).Handler()
}

func (ts *testServices) pipelineCalls() int {
	return ts.reports.calls + ts.search.calls + ts.refiner.calls + ts.analyzer.calls
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer test-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
