// Package resilience implements the DOM-stability wait and popup dismisser
// described in spec.md §4.3 — primitives every action runs underneath.
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/voyager/internal/driver"
)

// StabilityOptions tunes the DOM-stability wait.
type StabilityOptions struct {
	// IdleWindow is how long the DOM must go unmutated to be "stable".
	IdleWindow time.Duration
	// HardDeadline bounds the total wait regardless of mutation activity.
	HardDeadline time.Duration
}

// DefaultStabilityOptions matches spec.md §4.3's defaults (200ms idle, 5s hard cap).
func DefaultStabilityOptions() StabilityOptions {
	return StabilityOptions{IdleWindow: 200 * time.Millisecond, HardDeadline: 5 * time.Second}
}

// mutationObserverScript installs a MutationObserver that resolves once the
// DOM has been quiet for IdleWindow. The script itself has no deadline;
// WaitForDOMStability stops waiting for it at HardDeadline. This module only
// encodes the script + timeout plumbing, since
// the core never throws on this wait (spec.md: "never throws in the action path").
const mutationObserverScript = `(() => new Promise((resolve) => {
  let timer;
  const idleMs = %d;
  const done = () => { observer.disconnect(); resolve(true); };
  const observer = new MutationObserver(() => {
    clearTimeout(timer);
    timer = setTimeout(done, idleMs);
  });
  observer.observe(document.documentElement || document, { childList: true, subtree: true, attributes: true });
  timer = setTimeout(done, idleMs);
}))()`

// WaitForDOMStability waits for the page's DOM to stop mutating, or for the
// hard deadline, whichever comes first. It never returns an error — a
// failure to observe stability is not itself actionable, per spec.md §4.3.
func WaitForDOMStability(ctx context.Context, page driver.Page, opts StabilityOptions) {
	if opts.IdleWindow <= 0 {
		opts = DefaultStabilityOptions()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		script := mutationObserverScriptFor(opts.IdleWindow)
		_, _ = page.Evaluate(ctx, script, nil)
	}()

	select {
	case <-done:
	case <-time.After(opts.HardDeadline):
	case <-ctx.Done():
	}
}

func mutationObserverScriptFor(idle time.Duration) string {
	return fmt.Sprintf(mutationObserverScript, idle.Milliseconds())
}
