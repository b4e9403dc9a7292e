// Package cache mirrors review-session items to a local SQLite database so a
// restarted session can pick its result list back up. The mirror is best
// effort and never authoritative over the in-memory session; file handles are
// not serializable and are never reconstructed from here.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/prasetyadi/faktur-review/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS review_items (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store is a SQLite-backed session snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the session cache under dataDir. If dataDir is
// empty it defaults to ~/.faktur-review.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".faktur-review")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "session.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveSnapshot replaces the cached item list with the given one, preserving
// order through the position column.
func (s *Store) SaveSnapshot(items []*entity.ExtractionItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM review_items`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.Prepare(`INSERT INTO review_items (id, position, payload, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", item.ID, err)
		}
		if _, err := stmt.Exec(item.ID.String(), i, string(payload), now); err != nil {
			return fmt.Errorf("insert item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached items in their original order.
func (s *Store) LoadSnapshot() ([]*entity.ExtractionItem, error) {
	rows, err := s.db.Query(`SELECT payload FROM review_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var items []*entity.ExtractionItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		var item entity.ExtractionItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot row: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return items, nil
}

// Clear drops the cached snapshot.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM review_items`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
