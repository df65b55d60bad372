// Package handle implements the per-session handle registry from
// spec.md §4.6: a map from opaque 10-character IDs to the selector that
// resolved them, re-prioritised by last-winning strategy on every resolve.
package handle

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"sync"
	"time"

	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/selector"
)

// idEncoding is a base32 encoding without padding; newID truncates its
// output to 10 chars —
// the identifiers stay URL-safe and grep-friendly in logs and trace entries.
var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Record is the registry entry described in spec.md §4.6.
type Record struct {
	OriginalSelector   selector.Selector
	LastWinningStrategy selector.Strategy
	RemapCount         int
}

// ResolveResult is returned by Resolve: the driver.Locator plus whether the
// winning strategy changed since registration (or the last resolve).
type ResolveResult struct {
	Locator  driver.Locator
	Strategy selector.Strategy
	Remapped bool
	Record   Record
}

// Registry is per-session; it must never be shared across sessions (the
// spec's concurrency model serialises all access within one session's
// cooperative executor, so no internal locking is strictly required, but a
// mutex is kept cheap insurance against callers that don't honour that).
type Registry struct {
	mu      sync.Mutex
	records map[string]*Record
}

// New builds an empty handle registry for one session.
func New() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

func newID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return idEncoding.EncodeToString(buf)[:10]
}

// Register resolves sel once with attached state and stores a new handle
// for it, keyed on the winning strategy.
func (r *Registry) Register(ctx context.Context, page driver.Page, sel selector.Selector, budget time.Duration) (string, error) {
	res, err := selector.Resolve(ctx, page, sel, driver.Attached, budget)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := newID()
	for _, exists := r.records[id]; exists; _, exists = r.records[id] {
		id = newID()
	}
	r.records[id] = &Record{
		OriginalSelector:    sel,
		LastWinningStrategy: res.Strategy,
	}
	return id, nil
}

// Resolve builds the prioritised chain [lastWinningStrategy, ...original \
// lastWinningStrategy], resolves it, and updates remap bookkeeping if the
// winning strategy changed.
func (r *Registry) Resolve(ctx context.Context, page driver.Page, handleID string, state driver.WaitState, budget time.Duration) (*ResolveResult, error) {
	r.mu.Lock()
	rec, ok := r.records[handleID]
	if !ok {
		r.mu.Unlock()
		return nil, browsererr.NewStaleElement("unknown handle %q", handleID)
	}
	chain := prioritize(rec.OriginalSelector, rec.LastWinningStrategy)
	prevWinner := rec.LastWinningStrategy
	r.mu.Unlock()

	res, err := selector.Resolve(ctx, page, chain, state, budget)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok = r.records[handleID]
	if !ok {
		return nil, browsererr.NewStaleElement("unknown handle %q", handleID)
	}

	remapped := !res.Strategy.Equal(prevWinner)
	if remapped {
		rec.LastWinningStrategy = res.Strategy
		rec.RemapCount++
	}

	return &ResolveResult{
		Locator:  res.Locator,
		Strategy: res.Strategy,
		Remapped: remapped,
		Record:   *rec,
	}, nil
}

// prioritize builds [lastWinner, ...original \ lastWinner], preserving the
// original chain's relative order for the remaining strategies.
func prioritize(original selector.Selector, winner selector.Strategy) selector.Selector {
	strategies := original.Strategies()
	rest := make([]selector.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s.Equal(winner) {
			continue
		}
		rest = append(rest, s)
	}
	ordered := append([]selector.Strategy{winner}, rest...)
	return selector.NewChain(ordered...)
}

// Release removes handleID from the registry. A second release is a no-op.
func (r *Registry) Release(handleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, handleID)
}

// Clear empties the registry, e.g. on session close.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]*Record)
}

// Get returns the stored record without re-resolving.
func (r *Registry) Get(handleID string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[handleID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}
