package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helixir/research-report-service/internal/domain"
)

const recordColumns = `id, user_id, title, content, papers, type, created_at`

// Compile-time interface verification.
var _ RecordRepository = (*PgRecordRepository)(nil)

// PgRecordRepository is a PostgreSQL implementation of RecordRepository.
type PgRecordRepository struct {
	db DBTX
}

// NewPgRecordRepository creates a new PostgreSQL record repository.
func NewPgRecordRepository(db DBTX) *PgRecordRepository {
	return &PgRecordRepository{db: db}
}

// SaveReport inserts a report row. Papers are stored as NULL.
func (r *PgRecordRepository) SaveReport(ctx context.Context, owner domain.UserID, title, content string) (domain.StoredRecord, error) {
	return r.insert(ctx, "save report", domain.StoredRecord{
		UserID:  owner,
		Title:   title,
		Content: content,
		Type:    domain.RecordTypeReport,
	})
}

// SaveSearch inserts a search row with the papers serialized as JSON.
func (r *PgRecordRepository) SaveSearch(ctx context.Context, owner domain.UserID, title, summary string, papers []domain.Paper) (domain.StoredRecord, error) {
	if papers == nil {
		papers = []domain.Paper{}
	}
	return r.insert(ctx, "save search", domain.StoredRecord{
		UserID:  owner,
		Title:   title,
		Content: summary,
		Papers:  papers,
		Type:    domain.RecordTypeSearch,
	})
}

func (r *PgRecordRepository) insert(ctx context.Context, op string, rec domain.StoredRecord) (domain.StoredRecord, error) {
	if rec.UserID.IsZero() {
		return domain.StoredRecord{}, domain.NewMissingOwnerError(op)
	}

	var papersJSON []byte
	if rec.Type == domain.RecordTypeSearch {
		var err error
		papersJSON, err = json.Marshal(rec.Papers)
		if err != nil {
			return domain.StoredRecord{}, domain.NewPersistenceError(op, fmt.Errorf("failed to marshal papers: %w", err))
		}
	}

	query := `
		INSERT INTO reports (user_id, title, content, papers, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		string(rec.UserID), rec.Title, rec.Content, papersJSON, string(rec.Type),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return domain.StoredRecord{}, domain.NewPersistenceError(op, err)
	}

	return rec, nil
}

// ListByOwner returns a page of the owner's records ordered by creation time, newest first.
func (r *PgRecordRepository) ListByOwner(ctx context.Context, filter domain.RecordFilter) ([]domain.StoredRecord, int64, error) {
	if filter.Owner.IsZero() {
		return nil, 0, domain.NewMissingOwnerError("list records")
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, 0, domain.NewValidationError("type", fmt.Sprintf("must be one of %s, %s", domain.RecordTypeReport, domain.RecordTypeSearch))
	}
	applyPaginationDefaults(&filter.Limit, &filter.Offset)

	conditions := []string{"user_id = $1"}
	args := []interface{}{string(filter.Owner)}
	argIndex := 2

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, string(filter.Type))
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reports WHERE %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, domain.NewPersistenceError("count records", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM reports
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		recordColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, domain.NewPersistenceError("list records", err)
	}
	defer rows.Close()

	records := make([]domain.StoredRecord, 0, filter.Limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, domain.NewPersistenceError("scan record", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewPersistenceError("list records", err)
	}

	return records, totalCount, nil
}

// GetByID returns the record with id if it belongs to owner.
func (r *PgRecordRepository) GetByID(ctx context.Context, owner domain.UserID, id uuid.UUID) (domain.StoredRecord, error) {
	if owner.IsZero() {
		return domain.StoredRecord{}, domain.NewMissingOwnerError("get record")
	}

	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1 AND user_id = $2`, recordColumns)

	rec, err := scanRecord(r.db.QueryRow(ctx, query, id, string(owner)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StoredRecord{}, domain.NewNotFoundError("report", id.String())
		}
		return domain.StoredRecord{}, domain.NewPersistenceError("get record", err)
	}

	return rec, nil
}

// scanRecord scans a row selected with recordColumns.
func scanRecord(row pgx.Row) (domain.StoredRecord, error) {
	var (
		rec        domain.StoredRecord
		userID     string
		recordType string
		papersJSON []byte
	)

	if err := row.Scan(&rec.ID, &userID, &rec.Title, &rec.Content, &papersJSON, &recordType, &rec.CreatedAt); err != nil {
		return domain.StoredRecord{}, err
	}

	rec.UserID = domain.UserID(userID)
	rec.Type = domain.RecordType(recordType)

	if len(papersJSON) > 0 {
		if err := json.Unmarshal(papersJSON, &rec.Papers); err != nil {
			return domain.StoredRecord{}, fmt.Errorf("failed to unmarshal papers: %w", err)
		}
	}

	return rec, nil
}
