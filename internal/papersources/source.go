// Package papersources provides the interface and shared plumbing for
// bibliographic search clients.
//
// Example usage:
//
//	source := arxiv.New(arxiv.Config{Timeout: 30 * time.Second})
//	papers, err := source.Search(ctx, "quantum computing", 5)
package papersources

import (
	"context"
	"strings"

	"github.com/helixir/research-report-service/internal/domain"
)

// PaperSource searches an external bibliographic index.
type PaperSource interface {
	// Search returns at most maxResults papers matching query, in the
	// provider's relevance order. Zero matches yields an empty slice and no
	// error. Failures are *domain.UpstreamError (transport or non-2xx),
	// *domain.ParseError (undecodable body), or *domain.ValidationError
	// (blank query, non-positive maxResults).
	Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error)

	// Name returns a short identifier used in logs and metrics.
	Name() string
}

// ValidateSearch checks the arguments shared by every PaperSource.
func ValidateSearch(query string, maxResults int) error {
	if strings.TrimSpace(query) == "" {
		return domain.NewValidationError("query", "is required")
	}
	if maxResults <= 0 {
		return domain.NewValidationError("max_results", "must be positive")
	}
	return nil
}
