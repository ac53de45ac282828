package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rebeliceyang/lazychart/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Store persists UI state and fetch history in SQLite
type Store struct {
	db         *sql.DB
	maxEntries int
}

// NewStore opens (creating if needed) the state database at path
func NewStore(path string, maxEntries int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create schema
	_, err = db.Exec(schemaSQL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// GetBool reads a boolean, returning fallback when absent or unreadable
func (s *Store) GetBool(key string, fallback bool) bool {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

// SetBool writes a boolean
func (s *Store) SetBool(key string, value bool) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, strconv.FormatBool(value))
	return err
}

// AddFetch records a completed fetch and trims old entries
func (s *Store) AddFetch(entry models.FetchEntry) error {
	executedAt := entry.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO fetch_history
		(request_id, kind, datasource, executed_at, duration_ms, row_count, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.Kind.String(),
		entry.Datasource,
		executedAt.UTC(),
		entry.Duration.Milliseconds(),
		entry.RowCount,
		entry.Success,
		entry.ErrorMessage,
	)
	if err != nil {
		return err
	}

	if s.maxEntries > 0 {
		_, err = s.db.Exec(`
			DELETE FROM fetch_history
			WHERE id NOT IN (SELECT id FROM fetch_history ORDER BY id DESC LIMIT ?)`,
			s.maxEntries)
	}
	return err
}

// RecentFetches retrieves the most recent fetch history entries
func (s *Store) RecentFetches(limit int) ([]models.FetchEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, request_id, kind, datasource, executed_at,
		       duration_ms, row_count, success, error_message
		FROM fetch_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []models.FetchEntry
	for rows.Next() {
		var e models.FetchEntry
		var kind string
		var durationMs int64
		var executedAt time.Time

		err := rows.Scan(
			&e.ID,
			&e.RequestID,
			&kind,
			&e.Datasource,
			&executedAt,
			&durationMs,
			&e.RowCount,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.Kind, err = models.ParseResultKind(kind)
		if err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt = executedAt

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MemoryStore is a KV held in memory, used when no state file is available
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]bool
	// FailWrites makes SetBool return an error
	FailWrites bool
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]bool{}}
}

func (m *MemoryStore) GetBool(key string, fallback bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok {
		return v
	}
	return fallback
}

func (m *MemoryStore) SetBool(key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("memory store is read-only")
	}
	m.values[key] = value
	return nil
}
