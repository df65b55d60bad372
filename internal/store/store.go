// Package store defines the persistence contracts the core treats as an
// external collaborator: session-record CRUD, an append-only action log,
// and nothing else — the concrete SQL schema lives in internal/store/sqlite.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// SessionStatus is the lifecycle state of a persisted browser session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionSuspended SessionStatus = "suspended"
	SessionClosed    SessionStatus = "closed"
)

// Session is the persisted record for a browser session.
type Session struct {
	ID        string
	Profile   string
	Status    SessionStatus
	Snapshot  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore is the CRUD surface over persisted sessions.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	UpdateStatus(ctx context.Context, id string, status SessionStatus) error
	SaveSnapshot(ctx context.Context, id string, snapshot json.RawMessage) error
	ListByStatus(ctx context.Context, status SessionStatus) ([]Session, error)
	SuspendAll(ctx context.Context) error
	CloseAll(ctx context.Context) error
}

// ActionLogEntry is one append-only record of an engine-executed action.
type ActionLogEntry struct {
	ID             int64
	SessionID      string
	Action         string
	Selector       string
	Input          json.RawMessage
	Result         json.RawMessage
	ScreenshotPath string
	DurationMs     float64
	Retries        int
	Failed         bool
	CreatedAt      time.Time
}

// ActionLog is the append-only action history, queryable by session and
// across all sessions.
type ActionLog interface {
	Append(ctx context.Context, e ActionLogEntry) error
	BySession(ctx context.Context, sessionID string, limit int) ([]ActionLogEntry, error)
	Recent(ctx context.Context, limit int) ([]ActionLogEntry, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
	FailuresBySession(ctx context.Context, sessionID string, limit int) ([]ActionLogEntry, error)
}

// ErrNotFound is returned by Get when no session with the given ID exists.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "store: not found" }
