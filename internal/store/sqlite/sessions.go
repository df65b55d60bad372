package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/voyager/internal/store"
)

func (s *Store) Create(ctx context.Context, sess store.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := sess.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, profile, status, snapshot, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Profile, string(sess.Status), nullableJSON(sess.Snapshot), now, now,
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, profile, status, snapshot, created_at, updated_at FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status store.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("update status for session %s: %w", id, err)
	}
	return requireRowsAffected(res, id)
}

func (s *Store) SaveSnapshot(ctx context.Context, id string, snapshot json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET snapshot = ?, updated_at = ? WHERE id = ?`, nullableJSON(snapshot), time.Now(), id)
	if err != nil {
		return fmt.Errorf("save snapshot for session %s: %w", id, err)
	}
	return requireRowsAffected(res, id)
}

func (s *Store) ListByStatus(ctx context.Context, status store.SessionStatus) ([]store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile, status, snapshot, created_at, updated_at FROM sessions WHERE status = ? ORDER BY created_at`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("list sessions by status %s: %w", status, err)
	}
	defer rows.Close()

	var out []store.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *Store) SuspendAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE status = ?`,
		string(store.SessionSuspended), time.Now(), string(store.SessionActive))
	if err != nil {
		return fmt.Errorf("suspend all active sessions: %w", err)
	}
	return nil
}

func (s *Store) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE status != ?`,
		string(store.SessionClosed), time.Now(), string(store.SessionClosed))
	if err != nil {
		return fmt.Errorf("close all sessions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (store.Session, error) {
	var (
		sess      store.Session
		status    string
		snapshot  sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&sess.ID, &sess.Profile, &status, &snapshot, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Session{}, store.ErrNotFound
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = store.SessionStatus(status)
	if snapshot.Valid {
		sess.Snapshot = json.RawMessage(snapshot.String)
	}
	sess.CreatedAt = createdAt
	sess.UpdatedAt = updatedAt
	return sess, nil
}

func requireRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
