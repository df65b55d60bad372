// Package semantic implements the higher-level field/form primitives from
// spec.md §4.5: setField, submitForm, applyFilter, selectAutocomplete, and
// setDateField. Each resolves a human-meaningful identifier down to a
// concrete selector.Selector, then delegates the actual interaction to the
// interact package's primitives.
package semantic

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/interact"
	"github.com/entrhq/voyager/internal/resilience"
	"github.com/entrhq/voyager/internal/selector"
)

// identifierCandidates builds the ordered fallback chain setField/applyFilter
// use to locate a field by a human identifier: name attribute, placeholder,
// aria-label, then associated label text.
func identifierCandidates(identifier string) []selector.Strategy {
	return []selector.Strategy{
		selector.CSS(fmt.Sprintf(`input[name=%q], textarea[name=%q], select[name=%q]`, identifier, identifier, identifier)),
		selector.CSS(fmt.Sprintf(`[placeholder=%q]`, identifier)),
		selector.CSS(fmt.Sprintf(`[aria-label=%q]`, identifier)),
		selector.Label(identifier),
	}
}

// locatorForStrategy mirrors the selector package's internal strategy-to-
// locator mapping for the subset semantic.go needs for its own fast-path
// count() probes.
func locatorForStrategy(page driver.Page, s selector.Strategy) driver.Locator {
	switch s.Kind {
	case selector.KindCSS:
		return page.Locator(s.Selector)
	case selector.KindLabel:
		return page.GetByLabel(s.Text, false)
	default:
		return nil
	}
}

// resolveIdentifier implements the "fast path: each candidate is checked for
// count()>0 before falling back to the confidence resolver" rule from
// spec.md §4.5: it tries a cheap count() probe per candidate in order, and
// only if none match does it hand the whole chain to selector.Resolve.
func resolveIdentifier(ctx context.Context, page driver.Page, candidates []selector.Strategy, budget time.Duration) (selector.Selector, error) {
	for _, cand := range candidates {
		loc := locatorForStrategy(page, cand)
		if loc == nil {
			continue
		}
		n, err := loc.Count(ctx)
		if err == nil && n > 0 {
			return selector.FromStrategy(cand), nil
		}
	}

	chain := selector.NewChain(candidates...)
	if _, err := selector.Resolve(ctx, page, chain, driver.Visible, budget); err != nil {
		return selector.Selector{}, err
	}
	return chain, nil
}

// SetField builds an action.Body resolving identifier via the fast-path/
// confidence-resolver chain above, then typing value into it using opts.Mode.
func SetField(identifier, value string, opts interact.TypeOptions, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		sel, err := resolveIdentifier(ctx, page, identifierCandidates(identifier), budget)
		if err != nil {
			return nil, err
		}
		return interact.Type(sel, value, opts, budget)(ctx, page, meta)
	}
}

// submitCandidates is the default chain submitForm tries, scoped to scope
// when non-empty (a CSS prefix, e.g. "#checkout-form ").
func submitCandidates(scope string) []selector.Strategy {
	return []selector.Strategy{
		selector.CSS(scope + `button[type=submit]`),
		selector.CSS(scope + `input[type=submit]`),
		selector.ARIA("button", "Submit"),
		selector.CSS(scope + `button`),
	}
}

// SubmitForm builds an action.Body clicking the first matching submit
// control in the default chain, optionally scoped under a container.
func SubmitForm(scope string, budget time.Duration) action.Body {
	chain := selector.NewChain(submitCandidates(scope)...)
	return interact.Click(chain, driver.ClickOptions{}, budget)
}

// ApplyFilter builds an action.Body that sets a field then clicks an apply
// control: either applySelector if given, or the default chain (submit
// button, then aria "Apply"/"Search"/"Filter"), unless skipApply is set.
func ApplyFilter(identifier, value string, applySelector string, skipApply bool, scope string, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		sel, err := resolveIdentifier(ctx, page, identifierCandidates(identifier), budget)
		if err != nil {
			return nil, err
		}
		if _, err := interact.Type(sel, value, interact.TypeOptions{Mode: interact.ModeFill}, budget)(ctx, page, meta); err != nil {
			return nil, err
		}

		if skipApply {
			return nil, nil
		}

		var applyChain selector.Selector
		if applySelector != "" {
			applyChain = selector.FromCSS(applySelector)
		} else {
			applyChain = selector.NewChain(
				selector.CSS(scope+`button[type=submit]`),
				selector.ARIA("button", "Apply"),
				selector.ARIA("button", "Search"),
				selector.ARIA("button", "Filter"),
			)
		}
		return interact.Click(applyChain, driver.ClickOptions{}, budget)(ctx, page, meta)
	}
}

// autocompleteOptionCandidates is the default chain selectAutocomplete tries
// once the option list is open: aria role option, exact-text match, then
// listbox descendants, then generic list items.
func autocompleteOptionCandidates(text string) []selector.Strategy {
	return []selector.Strategy{
		selector.ARIA("option", text),
		selector.Text(text, true),
		selector.CSS(`[role=listbox] [role=option]`),
		selector.CSS(`li`),
	}
}

// SelectAutocomplete builds an action.Body that types text sequentially into
// sel (to trigger the widget's suggestion list) then clicks the matching
// option.
func SelectAutocomplete(sel selector.Selector, text string, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		opts := interact.TypeOptions{Mode: interact.ModeSequential, KeystrokeDelay: 20 * time.Millisecond}
		if _, err := interact.Type(sel, text, opts, budget)(ctx, page, meta); err != nil {
			return nil, err
		}

		optionChain := selector.NewChain(autocompleteOptionCandidates(text)...)
		return interact.Click(optionChain, driver.ClickOptions{}, budget)(ctx, page, meta)
	}
}

// dateCloseKeys are pressed in order after setting a date field's value, to
// close whatever popover calendar widget the native setter may have opened.
var dateCloseKeys = []string{"Enter", "Escape"}

// SetDateField builds an action.Body that sets sel's value via the native
// setter, presses Enter then Escape to dismiss any date popover, and
// verifies the resulting input value is non-empty.
func SetDateField(sel selector.Selector, value string, budget time.Duration) action.Body {
	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		res, err := selector.Resolve(ctx, page, sel, driver.Visible, budget)
		if err != nil {
			return nil, err
		}
		meta.SelectorResolved = true

		if _, err := interact.Type(sel, value, interact.TypeOptions{Mode: interact.ModeNativeSetter}, budget)(ctx, page, meta); err != nil {
			return nil, err
		}

		for _, key := range dateCloseKeys {
			if err := res.Locator.Press(ctx, key); err != nil {
				return nil, err
			}
			meta.EventsDispatched++
		}

		actual, err := res.Locator.InputValue(ctx)
		if err != nil {
			return nil, err
		}
		if actual == "" {
			return nil, browsererr.NewAssertionFailed("date field %s remained empty after setDateField", sel)
		}

		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())
		return actual, nil
	}
}
