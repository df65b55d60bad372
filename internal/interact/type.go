package interact

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/resilience"
	"github.com/entrhq/voyager/internal/selector"
)

// TypeMode is one of the four input strategies from spec.md §4.5.
type TypeMode string

const (
	ModeFill         TypeMode = "fill"
	ModeSequential   TypeMode = "sequential"
	ModePaste        TypeMode = "paste"
	ModeNativeSetter TypeMode = "nativeSetter"
)

// TypeOptions configures one Type action.
type TypeOptions struct {
	Mode           TypeMode // defaults to ModeFill
	KeystrokeDelay time.Duration
}

// TypeResult is the data payload of a successful type action.
type TypeResult struct {
	Value string
}

// Type builds the action.Body implementing the four input modes from
// spec.md §4.5. Every mode verifies the resulting input value matches value
// (fill's read-back check is explicit; the others rely on the same
// postcondition pattern via the caller's postcondition option).
func Type(sel selector.Selector, value string, opts TypeOptions, budget time.Duration) action.Body {
	current := sel
	if opts.Mode == "" {
		opts.Mode = ModeFill
	}

	return func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())

		res, err := selector.Resolve(ctx, page, current, driver.Visible, budget)
		if err != nil {
			current = current.Rotate()
			return nil, err
		}
		meta.SelectorResolved = true

		switch opts.Mode {
		case ModeFill:
			if err := res.Locator.Fill(ctx, value); err != nil {
				return nil, err
			}
			meta.EventsDispatched++
			actual, err := res.Locator.InputValue(ctx)
			if err != nil {
				return nil, err
			}
			if actual != value {
				return nil, browsererr.NewAssertionFailed("fill read-back mismatch: wrote %q, read %q", value, actual)
			}

		case ModeSequential:
			if err := res.Locator.Type(ctx, value, opts.KeystrokeDelay); err != nil {
				return nil, err
			}
			meta.EventsDispatched += len(value)

		case ModePaste:
			prior, hadPrior := stageClipboard(value)
			script := fmt.Sprintf(pasteScript, jsQuote(value))
			if _, err := res.Locator.Evaluate(ctx, script, nil); err != nil {
				if ferr := fillFallback(ctx, res.Locator, value); ferr != nil {
					restoreClipboard(prior, hadPrior)
					return nil, ferr
				}
			}
			restoreClipboard(prior, hadPrior)
			meta.EventsDispatched++

		case ModeNativeSetter:
			script := fmt.Sprintf(nativeSetterScript, jsQuote(value))
			if _, err := res.Locator.Evaluate(ctx, script, nil); err != nil {
				return nil, err
			}
			meta.EventsDispatched += 3 // input, change, blur

		default:
			return nil, browsererr.New(browsererr.AssertionFailed, "unknown type mode %q", opts.Mode)
		}

		resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())
		return TypeResult{Value: value}, nil
	}
}

// stageClipboard mirrors a human paste: the value lands in the OS clipboard
// first, then the page's paste event fires against it. The prior clipboard
// contents are captured so they can be restored once the event has fired,
// since a tool call shouldn't leave the operator's clipboard clobbered.
// Clipboard access can fail in headless/sandboxed environments with no
// clipboard backend; the paste still proceeds off the DataTransfer payload
// either way, so the failure is swallowed rather than surfaced.
func stageClipboard(value string) (prior string, hadPrior bool) {
	prior, err := clipboard.ReadAll()
	hadPrior = err == nil
	_ = clipboard.WriteAll(value)
	return prior, hadPrior
}

func restoreClipboard(prior string, hadPrior bool) {
	if hadPrior {
		_ = clipboard.WriteAll(prior)
	}
}

func fillFallback(ctx context.Context, loc driver.Locator, value string) error {
	if err := loc.Fill(ctx, value); err != nil {
		return err
	}
	_, err := loc.Evaluate(ctx, dispatchInputChangeScript, nil)
	return err
}

// jsQuote produces a JSON-escaped, single-quoted-safe JS string literal for
// interpolation into the evaluate scripts below.
func jsQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			out = append(out, '\\', byte(r))
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		default:
			out = append(out, string(r)...)
		}
	}
	out = append(out, '"')
	return string(out)
}

// These are Playwright pageFunction expressions: Locator.Evaluate calls them
// with the resolved element bound to el, so they never depend on focus state.

const pasteScript = `el => {
  const dt = new DataTransfer();
  dt.setData('text/plain', %s);
  const evt = new ClipboardEvent('paste', { clipboardData: dt, bubbles: true, cancelable: true });
  el.dispatchEvent(evt);
  return true;
}`

const nativeSetterScript = `el => {
  const proto = el.tagName === 'TEXTAREA' ? window.HTMLTextAreaElement.prototype : window.HTMLInputElement.prototype;
  const setter = Object.getOwnPropertyDescriptor(proto, 'value').set;
  setter.call(el, %s);
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
  el.dispatchEvent(new Event('blur', { bubbles: true }));
  return true;
}`

const dispatchInputChangeScript = `el => {
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return true;
}`
