package interact

import (
	"context"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/resilience"
	"github.com/entrhq/voyager/internal/selector"
)

// Select builds an action.Body that performs then verifies a select-option
// action by reading back the resulting input value.
func Select(sel selector.Selector, value string, budget time.Duration) action.Body {
	current := sel
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		res, err := selector.Resolve(ctx, page, current, driver.Visible, budget)
		if err != nil {
			current = current.Rotate()
			return nil, err
		}
		meta.SelectorResolved = true

		if err := res.Locator.SelectOption(ctx, value); err != nil {
			return nil, err
		}
		meta.EventsDispatched++

		actual, err := res.Locator.InputValue(ctx)
		if err != nil {
			return nil, err
		}
		if actual != value {
			return nil, browsererr.NewAssertionFailed("select read-back mismatch: wanted %q, got %q", value, actual)
		}
		return value, nil
	}
}

// Check builds an action.Body that checks a checkbox/radio, verifying the
// resulting checked state.
func Check(sel selector.Selector, budget time.Duration) action.Body {
	return checkAction(sel, true, budget)
}

// Uncheck builds the inverse of Check.
func Uncheck(sel selector.Selector, budget time.Duration) action.Body {
	return checkAction(sel, false, budget)
}

func checkAction(sel selector.Selector, want bool, budget time.Duration) action.Body {
	current := sel
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		res, err := selector.Resolve(ctx, page, current, driver.Visible, budget)
		if err != nil {
			current = current.Rotate()
			return nil, err
		}
		meta.SelectorResolved = true

		var actErr error
		if want {
			actErr = res.Locator.Check(ctx)
		} else {
			actErr = res.Locator.Uncheck(ctx)
		}
		if actErr != nil {
			return nil, actErr
		}
		meta.EventsDispatched++

		raw, err := res.Locator.Evaluate(ctx, checkedStateScript, nil)
		if err != nil {
			return nil, err
		}
		isChecked, _ := raw.(bool)
		if isChecked != want {
			return nil, browsererr.NewAssertionFailed("checkbox state mismatch: wanted checked=%v", want)
		}
		return isChecked, nil
	}
}

// checkedStateScript reads back the live checked IDL property rather than
// the checked attribute, since the attribute only reflects the element's
// initial HTML and does not track user/script toggles. Locator.Evaluate
// binds el to the resolved element.
const checkedStateScript = `el => el.checked`

// Hover builds an action.Body: stability wait → hover → stability wait.
func Hover(sel selector.Selector, budget time.Duration) action.Body {
	current := sel
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		res, err := selector.Resolve(ctx, page, current, driver.Visible, budget)
		if err != nil {
			current = current.Rotate()
			return nil, err
		}
		meta.SelectorResolved = true

		if err := res.Locator.Hover(ctx); err != nil {
			return nil, err
		}
		meta.EventsDispatched++

		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())
		return nil, nil
	}
}

// DragAndDrop builds an action.Body: stability wait → drag source to
// target → stability wait.
func DragAndDrop(source, target selector.Selector, budget time.Duration) action.Body {
	src, tgt := source, target
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		srcRes, err := selector.Resolve(ctx, page, src, driver.Visible, budget)
		if err != nil {
			src = src.Rotate()
			return nil, err
		}
		tgtRes, err := selector.Resolve(ctx, page, tgt, driver.Visible, budget)
		if err != nil {
			tgt = tgt.Rotate()
			return nil, err
		}
		meta.SelectorResolved = true

		if err := srcRes.Locator.DragTo(ctx, tgtRes.Locator); err != nil {
			return nil, err
		}
		meta.EventsDispatched++

		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())
		return nil, nil
	}
}

// FillEntry is one {selector, value} pair in a FillMap batch.
type FillEntry struct {
	Key      string
	Selector selector.Selector
	Value    string
}

// FillMapResult reports which entries succeeded; any failure causes the
// whole batch to fail so the engine retries it, per spec.md §4.5.
type FillMapResult struct {
	Filled []string
	Failed []string
}

// FillMap builds an action.Body performing a per-entry fill with read-back
// verification across a batch of fields.
func FillMap(entries []FillEntry, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		result := FillMapResult{}
		for _, entry := range entries {
			res, err := selector.Resolve(ctx, page, entry.Selector, driver.Visible, budget)
			if err != nil {
				result.Failed = append(result.Failed, entry.Key)
				return result, err
			}
			meta.SelectorResolved = true

			if err := res.Locator.Fill(ctx, entry.Value); err != nil {
				result.Failed = append(result.Failed, entry.Key)
				return result, err
			}
			meta.EventsDispatched++

			actual, err := res.Locator.InputValue(ctx)
			if err != nil || actual != entry.Value {
				result.Failed = append(result.Failed, entry.Key)
				return result, browsererr.NewAssertionFailed("fill_form: field %q mismatch", entry.Key)
			}
			result.Filled = append(result.Filled, entry.Key)
		}
		return result, nil
	}
}
