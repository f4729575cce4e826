// Package history keeps a local sqlite log of handled voice searches.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"findd/internal/common/fsutil"
	"findd/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id          TEXT PRIMARY KEY,
	at          INTEGER NOT NULL,
	utterance   TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	target_type TEXT NOT NULL DEFAULT '',
	drive       TEXT NOT NULL DEFAULT '',
	pattern     TEXT NOT NULL DEFAULT '',
	results     INTEGER NOT NULL DEFAULT 0,
	best        TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_searches_at ON searches(at DESC);
`

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 50

// Store is a sqlite-backed search history.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the history database at path, creating parent
// directories as needed. "~" is expanded.
func Open(path string) (*Store, error) {
	path, err := fsutil.ExpandHome(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Record stores e, assigning an id and timestamp when they are unset.
func (s *Store) Record(ctx context.Context, e types.HistoryEntry) (types.HistoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At == 0 {
		e.At = s.now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (id, at, utterance, name, target_type, drive, pattern, results, best, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.At, e.Utterance, e.Name, e.TargetType, e.Drive, e.Pattern, e.Results, e.Best, e.Outcome)
	if err != nil {
		return e, fmt.Errorf("recording search: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, utterance, name, target_type, drive, pattern, results, best, outcome
		 FROM searches ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing searches: %w", err)
	}
	defer rows.Close()
	out := make([]types.HistoryEntry, 0, limit)
	for rows.Next() {
		var e types.HistoryEntry
		if err := rows.Scan(&e.ID, &e.At, &e.Utterance, &e.Name, &e.TargetType, &e.Drive, &e.Pattern, &e.Results, &e.Best, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
