package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/snail3d/ralphd/internal/domain"
	"github.com/snail3d/ralphd/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS conversations (
		filename TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		project_name TEXT NOT NULL,
		session_id TEXT NOT NULL,
		saved_at INTEGER NOT NULL,
		message_count INTEGER NOT NULL DEFAULT 0,
		has_prd INTEGER NOT NULL DEFAULT 0,
		state_json TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		backroom_json TEXT NOT NULL,
		prd_json TEXT NOT NULL,
		auto_summary TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_saved ON conversations(saved_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveConversation writes one record, replacing an existing one with the
// same filename. Retries briefly on SQLite concurrency errors.
func (s *SQLiteStore) SaveConversation(ctx context.Context, rec ConversationRecord) error {
	stateJSON, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	messagesJSON, err := json.Marshal(rec.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	backroomJSON, err := json.Marshal(rec.Backroom)
	if err != nil {
		return fmt.Errorf("marshal backroom: %w", err)
	}
	prdJSON, err := json.Marshal(rec.PRD)
	if err != nil {
		return fmt.Errorf("marshal prd: %w", err)
	}

	query := `
	INSERT INTO conversations (
		filename, display_name, project_name, session_id, saved_at,
		message_count, has_prd, state_json, messages_json, backroom_json,
		prd_json, auto_summary
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(filename) DO UPDATE SET
		display_name = excluded.display_name,
		project_name = excluded.project_name,
		session_id = excluded.session_id,
		saved_at = excluded.saved_at,
		message_count = excluded.message_count,
		has_prd = excluded.has_prd,
		state_json = excluded.state_json,
		messages_json = excluded.messages_json,
		backroom_json = excluded.backroom_json,
		prd_json = excluded.prd_json,
		auto_summary = excluded.auto_summary`

	hasPRD := 0
	if rec.Meta.HasPRD {
		hasPRD = 1
	}

	maxRetries := 3
	baseDelay := 100 * time.Millisecond
	for i := 0; i < maxRetries; i++ {
		_, err = s.db.ExecContext(ctx, query,
			rec.Meta.Filename, rec.Meta.DisplayName, rec.Meta.ProjectName,
			rec.Meta.SessionID, rec.Meta.SavedAt.Unix(),
			rec.Meta.MessageCount, hasPRD,
			string(stateJSON), string(messagesJSON), string(backroomJSON),
			string(prdJSON), rec.AutoSummary,
		)
		if err == nil {
			return nil
		}
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("save conversation hit a locked database, retrying",
				"filename", rec.Meta.Filename,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}
		break
	}
	return fmt.Errorf("insert conversation: %w", err)
}

// ListConversations returns metadata for all stored records, most recent
// first. Rows that fail to scan are skipped with a warning.
func (s *SQLiteStore) ListConversations(ctx context.Context) ([]ConversationMeta, error) {
	query := `
	SELECT filename, display_name, project_name, session_id, saved_at,
	       message_count, has_prd
	FROM conversations ORDER BY saved_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close conversation rows", "error", closeErr)
		}
	}()

	var metas []ConversationMeta
	for rows.Next() {
		var meta ConversationMeta
		var savedAt int64
		var hasPRD int

		if err := rows.Scan(
			&meta.Filename, &meta.DisplayName, &meta.ProjectName,
			&meta.SessionID, &savedAt, &meta.MessageCount, &hasPRD,
		); err != nil {
			slog.Warn("skipping unreadable saved conversation", "error", err)
			continue
		}

		meta.SavedAt = time.Unix(savedAt, 0)
		meta.HasPRD = hasPRD != 0
		metas = append(metas, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return metas, nil
}

// LoadConversation returns the full record for a filename.
func (s *SQLiteStore) LoadConversation(ctx context.Context, filename string) (ConversationRecord, error) {
	query := `
	SELECT filename, display_name, project_name, session_id, saved_at,
	       message_count, has_prd, state_json, messages_json, backroom_json,
	       prd_json, auto_summary
	FROM conversations WHERE filename = ?`

	row := s.db.QueryRowContext(ctx, query, filename)

	var rec ConversationRecord
	var savedAt int64
	var hasPRD int
	var stateJSON, messagesJSON, backroomJSON, prdJSON string

	err := row.Scan(
		&rec.Meta.Filename, &rec.Meta.DisplayName, &rec.Meta.ProjectName,
		&rec.Meta.SessionID, &savedAt, &rec.Meta.MessageCount, &hasPRD,
		&stateJSON, &messagesJSON, &backroomJSON, &prdJSON, &rec.AutoSummary,
	)
	if err == sql.ErrNoRows {
		return ConversationRecord{}, ErrNotFound
	}
	if err != nil {
		return ConversationRecord{}, fmt.Errorf("scan conversation row: %w", err)
	}

	rec.Meta.SavedAt = time.Unix(savedAt, 0)
	rec.Meta.HasPRD = hasPRD != 0

	if err := json.Unmarshal([]byte(stateJSON), &rec.State); err != nil {
		return ConversationRecord{}, fmt.Errorf("decode state: %w", err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &rec.Messages); err != nil {
		return ConversationRecord{}, fmt.Errorf("decode messages: %w", err)
	}
	if err := json.Unmarshal([]byte(backroomJSON), &rec.Backroom); err != nil {
		return ConversationRecord{}, fmt.Errorf("decode backroom: %w", err)
	}
	rec.PRD = domain.NewPRD()
	if err := json.Unmarshal([]byte(prdJSON), &rec.PRD); err != nil {
		return ConversationRecord{}, fmt.Errorf("decode prd: %w", err)
	}

	return rec, nil
}

// DeleteConversation removes a record, reporting whether it existed.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, filename string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE filename = ?`, filename)
	if err != nil {
		return false, fmt.Errorf("delete conversation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
