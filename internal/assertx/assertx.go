// Package assertx provides the assertion-helper factories from spec.md
// §4.5: small (ctx) => (bool, error) predicates suitable for an action's
// Precondition/Postcondition, each optionally bumping a caller-supplied
// assertions-checked counter as it runs.
package assertx

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/selector"
)

func bump(counter *int) {
	if counter != nil {
		*counter++
	}
}

// AssertURLContains builds a Predicate checking page.URL() contains substr.
func AssertURLContains(page driver.Page, substr string, counter *int) action.Predicate {
	return func(ctx context.Context) (bool, error) {
		bump(counter)
		return strings.Contains(page.URL(), substr), nil
	}
}

// AssertElementVisible builds a Predicate checking sel resolves to a visible
// element within budget.
func AssertElementVisible(page driver.Page, sel selector.Selector, budget time.Duration, counter *int) action.Predicate {
	return func(ctx context.Context) (bool, error) {
		bump(counter)
		_, err := selector.Resolve(ctx, page, sel, driver.Visible, budget)
		return err == nil, nil
	}
}

// AssertElementGone builds a Predicate checking sel's head strategy is
// hidden/detached within budget (resolution against an absence state only
// probes the first strategy, per spec.md §4.2).
func AssertElementGone(page driver.Page, sel selector.Selector, budget time.Duration, counter *int) action.Predicate {
	return func(ctx context.Context) (bool, error) {
		bump(counter)
		_, err := selector.Resolve(ctx, page, sel, driver.Detached, budget)
		return err == nil, nil
	}
}

// AssertElementText builds a Predicate checking the resolved element's text
// content matches want, which may be a string (exact match) or *regexp.Regexp.
func AssertElementText(page driver.Page, sel selector.Selector, want interface{}, budget time.Duration, counter *int) action.Predicate {
	return func(ctx context.Context) (bool, error) {
		bump(counter)
		res, err := selector.Resolve(ctx, page, sel, driver.Visible, budget)
		if err != nil {
			return false, nil
		}
		text, err := res.Locator.TextContent(ctx)
		if err != nil {
			return false, err
		}
		switch w := want.(type) {
		case string:
			return text == w, nil
		case *regexp.Regexp:
			return w.MatchString(text), nil
		default:
			return false, nil
		}
	}
}

// AllOf composes predicates, short-circuiting on the first failure or error.
func AllOf(preds ...action.Predicate) action.Predicate {
	return func(ctx context.Context) (bool, error) {
		for _, p := range preds {
			ok, err := p(ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}
