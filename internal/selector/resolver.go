package selector

import (
	"context"
	"time"

	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
)

// Resolution records which strategy won a resolve call, matching the
// SelectorResolution entity in spec.md §3.
type Resolution struct {
	Locator       driver.Locator
	Strategy      Strategy
	StrategyIndex int
	ResolutionMs  float64
	ChainLength   int
}

// maxPerStrategyWait caps how long a single strategy in a chain may consume,
// per spec.md §4.2: "cap the per-strategy wait at min(remaining, 2000ms)".
const maxPerStrategyWait = 2000 * time.Millisecond

// locatorFor builds the driver.Locator for a single strategy against a page.
func locatorFor(page driver.Page, s Strategy) driver.Locator {
	switch s.Kind {
	case KindCSS:
		return page.Locator(s.Selector)
	case KindXPath:
		return page.Locator("xpath=" + s.Selector)
	case KindARIA:
		return page.GetByRole(s.Role, s.Name, false)
	case KindText:
		return page.GetByText(s.Text, s.Exact)
	case KindLabel:
		return page.GetByLabel(s.Text, false)
	case KindTestID:
		return page.GetByTestID(s.TestID)
	default:
		return nil
	}
}

// Resolve implements the contract in spec.md §4.2.
func Resolve(ctx context.Context, page driver.Page, sel Selector, state driver.WaitState, budget time.Duration) (*Resolution, error) {
	start := time.Now()
	strategies := sel.Strategies()
	chainLength := len(strategies)

	if chainLength == 0 {
		return nil, browsererr.NewTargetNotFound("empty selector chain")
	}

	// "Chain + hidden/detached: probe the first strategy only; waiting for
	// absence across fallbacks is meaningless."
	if state == driver.Hidden || state == driver.Detached {
		loc := locatorFor(page, strategies[0])
		if loc == nil {
			return nil, browsererr.NewTargetNotFound("unsupported strategy %s", strategies[0])
		}
		if err := loc.WaitFor(ctx, state, budget); err != nil {
			return nil, browsererr.Wrap(browsererr.TargetNotFound, err, "strategy %s did not reach state %s", strategies[0], state)
		}
		return &Resolution{
			Locator:       loc,
			Strategy:      strategies[0],
			StrategyIndex: 0,
			ResolutionMs:  msSince(start),
			ChainLength:   chainLength,
		}, nil
	}

	// visible/attached: try left-to-right, capping each attempt.
	deadline := start.Add(budget)
	for i, strat := range strategies {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		perStrategyBudget := remaining
		if perStrategyBudget > maxPerStrategyWait {
			perStrategyBudget = maxPerStrategyWait
		}

		loc := locatorFor(page, strat)
		if loc == nil {
			continue // strategies that throw are silently skipped
		}
		if err := loc.WaitFor(ctx, state, perStrategyBudget); err != nil {
			continue
		}
		return &Resolution{
			Locator:       loc,
			Strategy:      strat,
			StrategyIndex: i,
			ResolutionMs:  msSince(start),
			ChainLength:   chainLength,
		}, nil
	}

	return nil, browsererr.NewTargetNotFound("no strategy in chain of %d matched within %s", chainLength, budget)
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
