// Package httpserver provides the HTTP REST API of the research report service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/database"
	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/pipeline"
)

// ReportGenerator runs the report pipeline.
type ReportGenerator interface {
	Generate(ctx context.Context, query string, user domain.UserID) (*pipeline.ReportResult, error)
}

// PaperSearcher runs paper searches and saves them.
type PaperSearcher interface {
	Search(ctx context.Context, query string) (*pipeline.SearchResult, error)
	SaveSearch(ctx context.Context, user domain.UserID, query string, papers []domain.Paper, consolidatedSummary string) (domain.StoredRecord, error)
}

// QuerySuggester runs query refinement.
type QuerySuggester interface {
	Suggest(ctx context.Context, initialQuery string) (*domain.RefinementSuggestion, error)
}

// AbstractAnalyzer summarizes a single abstract.
type AbstractAnalyzer interface {
	AnalyzeAbstract(ctx context.Context, abstract string) (string, error)
}

// RecordReader reads the caller's persisted records.
type RecordReader interface {
	ListByOwner(ctx context.Context, filter domain.RecordFilter) ([]domain.StoredRecord, int64, error)
	GetByID(ctx context.Context, owner domain.UserID, id uuid.UUID) (domain.StoredRecord, error)
}

// Authenticator resolves the user behind an Authorization header.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (domain.UserID, error)
}

// HealthChecker reports database health.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// RequestValidator checks decoded request bodies.
type RequestValidator interface {
	Struct(s any) error
}

// Services are the collaborators behind the API routes.
type Services struct {
	Reports   ReportGenerator
	Search    PaperSearcher
	Refiner   QuerySuggester
	Analyzer  AbstractAnalyzer
	Records   RecordReader
	Auth      Authenticator
	Health    HealthChecker
	Validator RequestValidator
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	svc        Services
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, svc Services, logger zerolog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(requestLogger(s.logger))
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints (no auth)
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireUser(s.svc.Auth))

		r.Post("/search-papers", s.searchPapers)
		r.Post("/generate-report", s.generateReport)
		r.Post("/suggest-prompt", s.suggestPrompt)
		r.Post("/analyze-paper", s.analyzePaper)
		r.Post("/save-search", s.saveSearch)

		r.Get("/reports", s.listReports)
		r.Get("/reports/{reportID}", s.getReport)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.svc.Health.Health(r.Context())
	if health.Healthy() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler returns readiness status including pool statistics.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.svc.Health.Health(r.Context())
	if !health.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "not_ready",
			"database": health,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"database": health,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeErrorDetails writes a JSON error response with a details string.
func writeErrorDetails(w http.ResponseWriter, statusCode int, message, details string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Details: details})
}
