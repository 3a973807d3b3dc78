// Package repository provides data access for persisted reports and saved
// searches.
//
// Both record kinds live in a single reports relation discriminated by its
// type column. PgRecordRepository is the PostgreSQL implementation; it takes
// a DBTX so tests can substitute pgxmock for the pool.
//
// All methods return errors from the domain package:
//
//   - domain.ErrPersistence: the store rejected the statement or the owner was missing
//   - domain.ErrNotFound: no record with that id belongs to the caller
//   - domain.ErrInvalidInput: the filter or record type is invalid
//
// Implementations are safe for concurrent use; pgxpool handles connection
// pooling and synchronization.
package repository

import (
	"github.com/helixir/research-report-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
type DBTX = database.DBTX

// Filter pagination defaults and limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// applyPaginationDefaults normalizes limit and offset values for filter queries.
// It clamps limit to [1, MaxPageSize] and ensures offset >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = DefaultPageSize
	}
	if *limit > MaxPageSize {
		*limit = MaxPageSize
	}
	if *offset < 0 {
		*offset = 0
	}
}
