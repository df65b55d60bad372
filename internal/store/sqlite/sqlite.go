// Package sqlite is the concrete modernc.org/sqlite-backed implementation
// of the session-record CRUD and append-only action log store.go defines.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/entrhq/voyager/internal/redact"
	"github.com/entrhq/voyager/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	profile    TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	snapshot   TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);

CREATE TABLE IF NOT EXISTS action_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id      TEXT NOT NULL,
	action          TEXT NOT NULL,
	selector        TEXT NOT NULL DEFAULT '',
	input           TEXT,
	result          TEXT,
	screenshot_path TEXT NOT NULL DEFAULT '',
	duration_ms     REAL NOT NULL DEFAULT 0,
	retries         INTEGER NOT NULL DEFAULT 0,
	failed          INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_log_session ON action_log(session_id);
CREATE INDEX IF NOT EXISTS idx_action_log_created ON action_log(created_at);
CREATE INDEX IF NOT EXISTS idx_action_log_failed ON action_log(session_id, failed);
`

// Store wraps a single *sql.DB and implements both store.SessionStore and
// store.ActionLog, serialising writes the way a single-writer SQLite
// connection requires.
type Store struct {
	db       *sql.DB
	mu       sync.Mutex
	redactor *redact.Matcher
}

// Open creates the database file (and its parent directory) if needed,
// configures pragmas for a single-writer embedded workload, and applies
// the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.SessionStore = (*Store)(nil)
var _ store.ActionLog = (*Store)(nil)
