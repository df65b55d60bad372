// Package pool implements the Browser Session Pool from spec.md §4.8: a
// health-monitored set of isolated browser contexts with lazy/serialised
// launch, profile persistence, and crash-preserving auto-recovery, grounded
// on entrhq-forge's pkg/tools/browser.SessionManager.
package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/obslog"
	"github.com/entrhq/voyager/internal/pathguard"
	"github.com/entrhq/voyager/internal/session"
)

const (
	defaultMaxContexts      = 10
	defaultHealthInterval   = 30 * time.Second
	defaultProbeTimeout     = 5 * time.Second
	defaultMaxProbeFailures = 3
	snapshotFileName        = "session-snapshot.json"
)

// AcquireOptions parametrises one acquire() call.
type AcquireOptions struct {
	Profile  string
	URL      string
	Headless bool
	// SessionID overrides the generated session ID, used by restore() to
	// rebind a persisted session record to a freshly launched context under
	// its original identity.
	SessionID string
}

// Options configures the pool at construction time.
type Options struct {
	MaxContexts       int
	HealthInterval    time.Duration
	ProbeTimeout      time.Duration
	MaxProbeFailures  int
	ProfilesDir       string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxContexts <= 0 {
		o.MaxContexts = defaultMaxContexts
	}
	if o.HealthInterval <= 0 {
		o.HealthInterval = defaultHealthInterval
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = defaultProbeTimeout
	}
	if o.MaxProbeFailures <= 0 {
		o.MaxProbeFailures = defaultMaxProbeFailures
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = 1280
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = 800
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}
	return o
}

// Pool owns a single shared browser handle and every session launched from
// it. Only one launch may be in flight at a time (spec.md §4.8: "concurrent-
// launch deduper").
type Pool struct {
	mu        sync.Mutex
	launcher  driver.Launcher
	browser   driver.Browser
	launchWG  *sync.WaitGroup // non-nil while a launch is in flight
	launchErr error

	sessions map[string]*session.Session
	failures map[string]int

	opts Options
	log  *obslog.Logger

	shuttingDown bool

	healthCancel context.CancelFunc
	healthDone   chan struct{}
}

// New builds a pool bound to launcher, with lazy browser startup.
func New(launcher driver.Launcher, opts Options, log *obslog.Logger) *Pool {
	return &Pool{
		launcher: launcher,
		sessions: make(map[string]*session.Session),
		failures: make(map[string]int),
		opts:     opts.withDefaults(),
		log:      log,
	}
}

// ensureBrowser lazily launches the shared browser, serialising concurrent
// callers onto the single in-flight launch. headless applies only to the
// call that performs the launch.
func (p *Pool) ensureBrowser(ctx context.Context, headless bool) (driver.Browser, error) {
	p.mu.Lock()
	if p.browser != nil {
		b := p.browser
		p.mu.Unlock()
		return b, nil
	}
	if p.launchWG != nil {
		wg := p.launchWG
		p.mu.Unlock()
		wg.Wait()
		p.mu.Lock()
		b, err := p.browser, p.launchErr
		p.mu.Unlock()
		return b, err
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	p.launchWG = wg
	p.mu.Unlock()

	b, err := p.launcher.Launch(ctx, headless)

	p.mu.Lock()
	p.browser = b
	p.launchErr = err
	p.launchWG = nil
	p.mu.Unlock()
	wg.Done()

	return b, err
}

// Acquire implements acquire({profile?, url?}) from spec.md §4.8.
func (p *Pool) Acquire(ctx context.Context, opts AcquireOptions) (*session.Session, error) {
	p.mu.Lock()
	if len(p.sessions) >= p.opts.MaxContexts {
		p.mu.Unlock()
		return nil, browsererr.New(browsererr.SessionUnhealthy, "pool limit reached")
	}
	p.mu.Unlock()

	if opts.Profile != "" {
		if err := pathguard.ValidateIdent("profile", opts.Profile); err != nil {
			return nil, err
		}
	}

	browser, err := p.ensureBrowser(ctx, opts.Headless)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	bctx, err := browser.NewContext(ctx, contextOptionsFor(p.opts))
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}

	page, err := bctx.NewPage(ctx)
	if err != nil {
		_ = bctx.Close(ctx)
		return nil, fmt.Errorf("new page: %w", err)
	}

	id := opts.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	sess := session.New(id, opts.Profile, bctx, page)

	if opts.Profile != "" {
		if err := p.restoreFromProfile(ctx, sess, opts.Profile); err != nil && p.log != nil {
			p.log.Warnf("profile restore for %q failed: %v", opts.Profile, err)
		}
	}

	if opts.URL != "" {
		if err := page.Goto(ctx, opts.URL, "domcontentloaded", p.opts.NavigationTimeout); err != nil {
			return nil, browsererr.NewNavigationInterrupted("initial navigation to %s failed: %v", opts.URL, err)
		}
	}

	p.mu.Lock()
	p.sessions[id] = sess
	p.failures[id] = 0
	p.mu.Unlock()

	return sess, nil
}

func contextOptionsFor(o Options) driver.ContextOptions {
	return driver.ContextOptions{ViewportWidth: o.ViewportWidth, ViewportHeight: o.ViewportHeight}
}

func (p *Pool) profilePath(profile string) (string, error) {
	return pathguard.JoinUnder(p.opts.ProfilesDir, "profile", profile)
}

func (p *Pool) restoreFromProfile(ctx context.Context, sess *session.Session, profile string) error {
	dir, err := p.profilePath(profile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure profile dir: %w", err)
	}
	snap, err := loadSnapshot(dir)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	return sess.Restore(ctx, snap, p.opts.NavigationTimeout)
}

func loadSnapshot(dir string) (*session.Snapshot, error) {
	path := filepath.Join(dir, snapshotFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

func saveSnapshot(dir string, snap *session.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure profile dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	path := filepath.Join(dir, snapshotFileName)
	return os.WriteFile(path, data, 0o644)
}

// Release snapshots (if profile-bound) and closes a session. Snapshot
// failures are logged but never block close, per spec.md §4.8.
func (p *Pool) Release(ctx context.Context, id string) error {
	p.mu.Lock()
	sess, ok := p.sessions[id]
	if ok {
		delete(p.sessions, id)
		delete(p.failures, id)
	}
	p.mu.Unlock()

	if !ok {
		return browsererr.NewStaleElement("unknown session %q", id)
	}

	if sess.Profile != "" {
		if snap, err := sess.Snapshot(ctx); err == nil {
			if dir, derr := p.profilePath(sess.Profile); derr == nil {
				if serr := saveSnapshot(dir, snap); serr != nil && p.log != nil {
					p.log.Warnf("snapshot save for session %s failed: %v", id, serr)
				}
			}
		} else if p.log != nil {
			p.log.Warnf("snapshot capture for session %s failed: %v", id, err)
		}
	}

	return sess.Close(ctx)
}

// Get returns a tracked session by id.
func (p *Pool) Get(id string) (*session.Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	return s, ok
}

// List returns every currently tracked session.
func (p *Pool) List() []*session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*session.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		out = append(out, s)
	}
	return out
}

// Shutdown closes every session concurrently (all-settled semantics) then
// the shared browser, per spec.md §4.8.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.shuttingDown = true
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	p.StopHealthMonitor()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = p.Release(ctx, id)
		}(id)
	}
	wg.Wait()

	p.mu.Lock()
	browser := p.browser
	p.browser = nil
	p.sessions = make(map[string]*session.Session)
	p.failures = make(map[string]int)
	p.shuttingDown = false
	p.mu.Unlock()

	if browser != nil {
		return browser.Close(ctx)
	}
	return nil
}
