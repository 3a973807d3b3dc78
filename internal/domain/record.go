package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID identifies the authenticated owner of a request. It is opaque and
// resolved by the authentication gate once per request.
type UserID string

// String returns the raw identifier.
func (u UserID) String() string { return string(u) }

// IsZero reports whether the identifier is empty.
func (u UserID) IsZero() bool { return u == "" }

// RecordType discriminates rows in the shared records relation.
type RecordType string

const (
	// RecordTypeReport is a synthesized markdown report.
	RecordTypeReport RecordType = "report"
	// RecordTypeSearch is a saved search with its papers and consolidated summary.
	RecordTypeSearch RecordType = "search"
)

// IsValid checks if the record type is a known value.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeReport, RecordTypeSearch:
		return true
	default:
		return false
	}
}

// StoredRecord is a persisted report or saved search as returned by the store.
type StoredRecord struct {
	ID        uuid.UUID  `json:"id"`
	UserID    UserID     `json:"user_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Papers    []Paper    `json:"papers,omitempty"`
	Type      RecordType `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
}

// RecordFilter selects records belonging to one owner.
type RecordFilter struct {
	Owner  UserID
	Type   RecordType
	Limit  int
	Offset int
}
