package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/entrhq/voyager/internal/redact"
	"github.com/entrhq/voyager/internal/store"
)

// SetRedactor installs the matcher Append uses to sanitise Input before it
// is written. A nil redactor (the default) persists Input unchanged.
func (s *Store) SetRedactor(m *redact.Matcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redactor = m
}

func (s *Store) Append(ctx context.Context, e store.ActionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := e.Input
	if s.redactor != nil && len(input) > 0 {
		sanitised, err := redactJSON(s.redactor, input)
		if err != nil {
			return fmt.Errorf("redact action log input: %w", err)
		}
		input = sanitised
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO action_log
		 (session_id, action, selector, input, result, screenshot_path, duration_ms, retries, failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Action, e.Selector, nullableJSON(input), nullableJSON(e.Result),
		e.ScreenshotPath, e.DurationMs, e.Retries, boolToInt(e.Failed), createdAt,
	)
	if err != nil {
		return fmt.Errorf("append action log entry for session %s: %w", e.SessionID, err)
	}
	return nil
}

func (s *Store) BySession(ctx context.Context, sessionID string, limit int) ([]store.ActionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, action, selector, input, result, screenshot_path, duration_ms, retries, failed, created_at
		 FROM action_log WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`,
		sessionID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("query action log for session %s: %w", sessionID, err)
	}
	defer rows.Close()
	return scanActionLogRows(rows)
}

func (s *Store) Recent(ctx context.Context, limit int) ([]store.ActionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, action, selector, input, result, screenshot_path, duration_ms, retries, failed, created_at
		 FROM action_log ORDER BY created_at DESC LIMIT ?`, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent action log entries: %w", err)
	}
	defer rows.Close()
	return scanActionLogRows(rows)
}

func (s *Store) CountBySession(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM action_log WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count action log entries for session %s: %w", sessionID, err)
	}
	return count, nil
}

func (s *Store) FailuresBySession(ctx context.Context, sessionID string, limit int) ([]store.ActionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, action, selector, input, result, screenshot_path, duration_ms, retries, failed, created_at
		 FROM action_log WHERE session_id = ? AND failed = 1 ORDER BY created_at DESC LIMIT ?`,
		sessionID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("query failures for session %s: %w", sessionID, err)
	}
	defer rows.Close()
	return scanActionLogRows(rows)
}

func scanActionLogRows(rows *sql.Rows) ([]store.ActionLogEntry, error) {
	var out []store.ActionLogEntry
	for rows.Next() {
		var (
			e        store.ActionLogEntry
			input    sql.NullString
			result   sql.NullString
			failedIn int
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Action, &e.Selector, &input, &result,
			&e.ScreenshotPath, &e.DurationMs, &e.Retries, &failedIn, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action log entry: %w", err)
		}
		if input.Valid {
			e.Input = json.RawMessage(input.String)
		}
		if result.Valid {
			e.Result = json.RawMessage(result.String)
		}
		e.Failed = failedIn != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// limitOrAll turns a non-positive limit into "no cap" for the SQL LIMIT
// clause, since SQLite treats a negative LIMIT as unbounded.
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func redactJSON(m *redact.Matcher, raw json.RawMessage) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(m.Walk(v))
}
