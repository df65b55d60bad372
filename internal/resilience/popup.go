package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/entrhq/voyager/internal/driver"
)

// commonDismissPatterns are the default consent/overlay/banner CSS patterns
// the dismisser sweeps, per spec.md §4.3. Order matters: first match wins.
var commonDismissPatterns = []string{
	`button:has-text("Accept all")`,
	`button:has-text("Accept cookies")`,
	`button:has-text("I agree")`,
	`[aria-label="Accept cookies"]`,
	`#onetrust-accept-btn-handler`,
	`.cookie-consent button.accept`,
	`[role="dialog"] button[aria-label="Close"]`,
	`.modal button.close`,
	`.overlay button[data-dismiss]`,
	`.banner button.dismiss`,
}

// DefaultSweepInterval is the dismisser's background sweep cadence.
const DefaultSweepInterval = 3 * time.Second

// PopupDismisser is a per-action background watcher with two arms: a sweep
// of known consent/overlay patterns, and a native-dialog auto-dismisser.
type PopupDismisser struct {
	page     driver.Page
	patterns []string
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPopupDismisser builds a dismisser for one page. Callers may override
// the sweep patterns/interval for site-specific plugins; both default when
// zero-valued.
func NewPopupDismisser(page driver.Page, patterns []string, interval time.Duration) *PopupDismisser {
	if len(patterns) == 0 {
		patterns = commonDismissPatterns
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &PopupDismisser{page: page, patterns: patterns, interval: interval}
}

// Start begins the background sweep and installs the native dialog handler.
// Safe to call once per action; Stop must be called in a finally block.
func (d *PopupDismisser) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.done = make(chan struct{})
	d.mu.Unlock()

	d.page.OnDialog(func(dlg driver.Dialog) {
		_ = dlg.Dismiss(context.Background())
	})

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				d.SweepOnce(sweepCtx)
			}
		}
	}()
}

// SweepOnce performs a single one-shot sweep, clicking the first visible
// match among the configured patterns. Called explicitly at each retry
// start, per spec.md §4.3, in addition to the background ticker.
func (d *PopupDismisser) SweepOnce(ctx context.Context) {
	for _, pattern := range d.patterns {
		loc := d.page.Locator(pattern)
		count, err := loc.Count(ctx)
		if err != nil || count == 0 {
			continue
		}
		if err := loc.Click(ctx, driver.ClickOptions{Button: "left", ClickCount: 1}); err == nil {
			return
		}
	}
}

// Stop halts the background sweep. Safe to call multiple times or on a
// dismisser that was never started.
func (d *PopupDismisser) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.cancel()
	<-d.done
	d.running = false
}
