// Package interact implements the per-action primitives from spec.md §4.5:
// click, type, select/check/uncheck, hover/dragAndDrop, and fill(map) — each
// built to run as an action.Body, composing the resilience and selector
// packages the way entrhq-forge's pkg/tools/browser.Session.Click/Fill do
// against playwright-go directly.
package interact

import (
	"context"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/resilience"
	"github.com/entrhq/voyager/internal/selector"
)

// ClickResult is the data payload of a successful click action.
type ClickResult struct {
	URL string
}

// dedupWindow is how long a repeat click against the same selector key is
// treated as a no-op success, per spec.md §4.5.
const dedupWindow = 500 * time.Millisecond

// clickGuard tracks the duplicate-click suppression state across retries of
// one logical click invocation; a fresh guard is created per Click call.
type clickGuard struct {
	lastKey  string
	lastTime time.Time
}

func (g *clickGuard) shouldSkip(key string) bool {
	return g.lastKey == key && time.Since(g.lastTime) < dedupWindow
}

func (g *clickGuard) record(key string) {
	g.lastKey = key
	g.lastTime = time.Now()
}

// Click builds the action.Body for click: wait stability → resolve
// (visible) → scroll-into-view → click → wait stability, with the
// duplicate-click guard and TargetNotFound chain rotation described in
// spec.md §4.5.
func Click(sel selector.Selector, opts driver.ClickOptions, budget time.Duration) action.Body {
	current := sel
	guard := &clickGuard{}

	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		res, err := selector.Resolve(ctx, page, current, driver.Visible, budget)
		if err != nil {
			current = current.Rotate()
			return nil, err
		}
		meta.SelectorResolved = true

		key := res.Strategy.String()
		if guard.shouldSkip(key) {
			return ClickResult{URL: page.URL()}, nil
		}

		if err := res.Locator.ScrollIntoView(ctx); err != nil {
			return nil, err
		}
		if err := res.Locator.Click(ctx, opts); err != nil {
			return nil, err
		}
		meta.EventsDispatched++
		guard.record(key)

		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		return ClickResult{URL: page.URL()}, nil
	}
}
