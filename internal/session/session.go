// Package session implements the BrowserSession entity from spec.md §4.7: a
// context+page wrapper with snapshot/restore and crash/close-driven health
// tracking, grounded on entrhq-forge's pkg/tools/browser.Session.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/voyager/internal/driver"
)

// Snapshot is the {url, cookies, localStorage, timestamp} entity from
// spec.md §4.7.
type Snapshot struct {
	URL          string            `json:"url"`
	Cookies      []driver.Cookie   `json:"cookies"`
	LocalStorage map[string]string `json:"localStorage"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Session wraps one isolated browser context and its current page.
type Session struct {
	ID      string
	Profile string

	mu          sync.RWMutex
	context     driver.BrowserContext
	page        driver.Page
	healthy     bool
	pageClosed  bool
	createdAt   time.Time
	lastUsedAt  time.Time

	newPage func(ctx context.Context) (driver.Page, error)
}

// New wraps an already-created context+page pair under id, optionally tied
// to a named profile for restore-on-release (spec.md §4.8).
func New(id, profile string, bctx driver.BrowserContext, page driver.Page) *Session {
	now := time.Now()
	s := &Session{
		ID:         id,
		Profile:    profile,
		context:    bctx,
		page:       page,
		healthy:    true,
		createdAt:  now,
		lastUsedAt: now,
	}
	s.newPage = bctx.NewPage
	s.installListeners()
	return s
}

func (s *Session) installListeners() {
	s.page.OnCrash(func() {
		s.markUnhealthyLocked("page crash")
	})
	s.page.OnClose(func() {
		s.mu.Lock()
		s.pageClosed = true
		s.mu.Unlock()
		s.markUnhealthyLocked("page closed")
	})
}

func (s *Session) markUnhealthyLocked(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = false
	_ = reason // surfaced to callers via Healthy(); reason is for future logging hooks
}

// Page returns the session's current page.
func (s *Session) Page() driver.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// CurrentURL returns the current page's URL.
func (s *Session) CurrentURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page.URL()
}

// Healthy reports the session's current health flag.
func (s *Session) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// MarkHealthy clears the unhealthy flag, e.g. after a successful probe.
func (s *Session) MarkHealthy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = true
}

// MarkUnhealthy flags the session, e.g. after a failed health probe.
func (s *Session) MarkUnhealthy() {
	s.markUnhealthyLocked("health probe failure")
}

// Touch updates the last-used timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = time.Now()
}

// CreatedAt and LastUsedAt expose the session's lifecycle timestamps.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

func (s *Session) LastUsedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsedAt
}

// NewPage replaces the session's page, e.g. during auto-recovery, and
// reinstalls the crash/close listeners on it.
func (s *Session) NewPage(ctx context.Context) (driver.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.newPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	s.page = p
	s.healthy = true
	s.pageClosed = false
	s.installListenersLocked()
	return p, nil
}

func (s *Session) installListenersLocked() {
	s.page.OnCrash(func() {
		s.markUnhealthyLocked("page crash")
	})
	s.page.OnClose(func() {
		s.mu.Lock()
		s.pageClosed = true
		s.mu.Unlock()
		s.markUnhealthyLocked("page closed")
	})
}

// Close tears down the session's page and context.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.page.Close(ctx)
	return s.context.Close(ctx)
}

// Snapshot captures {url, cookies, localStorage, timestamp}. localStorage
// capture tolerates about:blank without failing, per spec.md §4.7.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	page := s.page
	s.mu.RUnlock()

	url := page.URL()
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot cookies: %w", err)
	}

	var storage map[string]string
	if url != "about:blank" && url != "" {
		storage, err = page.LocalStorage(ctx)
		if err != nil {
			storage = map[string]string{}
		}
	} else {
		storage = map[string]string{}
	}

	return &Snapshot{
		URL:          url,
		Cookies:      cookies,
		LocalStorage: storage,
		Timestamp:    time.Now(),
	}, nil
}

// Restore clears cookies, re-adds the snapshot's, navigates to the
// snapshot's URL (waiting for domcontentloaded), then repopulates
// localStorage. If the page was closed, a new one is opened first.
func (s *Session) Restore(ctx context.Context, snap *Snapshot, navTimeout time.Duration) error {
	s.mu.Lock()
	page := s.page
	wasClosed := s.pageClosed
	s.mu.Unlock()

	if wasClosed {
		var err error
		page, err = s.NewPage(ctx)
		if err != nil {
			return fmt.Errorf("restore: reopen page: %w", err)
		}
	}

	if err := page.ClearCookies(ctx); err != nil {
		return fmt.Errorf("restore: clear cookies: %w", err)
	}
	if len(snap.Cookies) > 0 {
		if err := page.AddCookies(ctx, snap.Cookies); err != nil {
			return fmt.Errorf("restore: add cookies: %w", err)
		}
	}
	if snap.URL != "" && snap.URL != "about:blank" {
		if err := page.Goto(ctx, snap.URL, "domcontentloaded", navTimeout); err != nil {
			return fmt.Errorf("restore: goto: %w", err)
		}
	}
	if len(snap.LocalStorage) > 0 {
		if err := page.SetLocalStorage(ctx, snap.LocalStorage); err != nil {
			return fmt.Errorf("restore: set local storage: %w", err)
		}
	}

	s.mu.Lock()
	s.page = page
	s.healthy = true
	s.mu.Unlock()
	return nil
}
