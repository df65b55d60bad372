// Package wait implements the thin wait adapters from spec.md §4.5:
// waitForSelector, waitForCondition, waitForNetworkIdle, and waitForUrl. Each
// is a direct pass-through to a driver wait call, wrapped only enough to run
// inside the action engine envelope and record a waitsPerformed trace entry.
package wait

import (
	"context"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/selector"
)

// ForSelector builds an action.Body waiting for sel to reach state.
func ForSelector(sel selector.Selector, state driver.WaitState, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		_, err := selector.Resolve(ctx, page, sel, state, budget)
		meta.WaitsPerformed++
		if err != nil {
			return nil, err
		}
		meta.SelectorResolved = true
		return nil, nil
	}
}

// ForCondition builds an action.Body that polls an in-page predicate script
// via the driver's waitForFunction.
func ForCondition(script string, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		err := page.WaitForFunction(ctx, script, budget)
		meta.WaitsPerformed++
		return nil, err
	}
}

// ForNetworkIdle builds an action.Body waiting for the driver's "networkidle"
// load state.
func ForNetworkIdle(budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		err := page.WaitForLoadState(ctx, "networkidle", budget)
		meta.WaitsPerformed++
		return nil, err
	}
}

// ForURL builds an action.Body waiting for the page's URL to match pattern.
func ForURL(pattern string, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		err := page.WaitForURL(ctx, pattern, budget)
		meta.WaitsPerformed++
		return nil, err
	}
}
