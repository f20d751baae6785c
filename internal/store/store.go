// Package store persists saved conversations: one record per save, keyed by
// a computed filename.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/snail3d/ralphd/internal/domain"
)

// ErrNotFound is returned by LoadConversation when no record exists for the
// filename. It is distinct from I/O failure so callers can report "not
// found" rather than a storage error.
var ErrNotFound = errors.New("conversation not found")

// ConversationMeta is the lightweight listing view of a saved conversation.
type ConversationMeta struct {
	Filename     string    `json:"filename"`
	DisplayName  string    `json:"display_name"`
	ProjectName  string    `json:"project_name"`
	SessionID    string    `json:"session_id"`
	SavedAt      time.Time `json:"saved_at"`
	MessageCount int       `json:"messages_count"`
	HasPRD       bool      `json:"has_prd"`
}

// ConversationRecord is one full saved conversation. Messages, Backroom,
// PRD and AutoSummary are denormalized copies of the corresponding state
// fields, kept alongside the full state for convenient partial reads.
type ConversationRecord struct {
	Meta        ConversationMeta
	State       domain.ConversationState
	Messages    []domain.Message
	Backroom    []domain.DebateEntry
	PRD         domain.PRD
	AutoSummary string
}

// Repository persists conversation records.
type Repository interface {
	// SaveConversation writes one record, replacing any record with the
	// same filename. Write failures propagate to the caller.
	SaveConversation(ctx context.Context, rec ConversationRecord) error

	// ListConversations returns metadata for every stored record, sorted
	// by save time descending. Records that cannot be read are skipped
	// with a warning rather than failing the listing.
	ListConversations(ctx context.Context) ([]ConversationMeta, error)

	// LoadConversation returns the full record for a filename, or
	// ErrNotFound if absent.
	LoadConversation(ctx context.Context, filename string) (ConversationRecord, error)

	// DeleteConversation removes a record. It reports false, not an
	// error, when the record did not exist.
	DeleteConversation(ctx context.Context, filename string) (bool, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying store.
	Close() error
}
