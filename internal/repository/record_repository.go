package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/helixir/research-report-service/internal/domain"
)

// RecordRepository persists reports and saved searches for their owner.
type RecordRepository interface {
	// SaveReport stores a synthesized report. title is the originating query.
	SaveReport(ctx context.Context, owner domain.UserID, title, content string) (domain.StoredRecord, error)

	// SaveSearch stores a search with its consolidated summary and papers.
	SaveSearch(ctx context.Context, owner domain.UserID, title, summary string, papers []domain.Paper) (domain.StoredRecord, error)

	// ListByOwner returns one page of the owner's records, newest first,
	// and the total number of matching records.
	ListByOwner(ctx context.Context, filter domain.RecordFilter) ([]domain.StoredRecord, int64, error)

	// GetByID returns a record owned by owner.
	GetByID(ctx context.Context, owner domain.UserID, id uuid.UUID) (domain.StoredRecord, error)
}
