// Package action implements the precondition→execute→verify envelope every
// primitive action runs inside (spec.md §4.4): retries, timeout tiers,
// navigation guards, back-off, trace emission, and screenshot-on-failure.
package action

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/obslog"
	"github.com/entrhq/voyager/internal/resilience"
	"github.com/entrhq/voyager/internal/trace"
)

// Tier is one of the three named timeout tiers from spec.md §4.4.
type Tier string

const (
	Short  Tier = "short"
	Medium Tier = "medium"
	Long   Tier = "long"
)

var tierDurations = map[Tier]time.Duration{
	Short:  5 * time.Second,
	Medium: 15 * time.Second,
	Long:   45 * time.Second,
}

// TierDuration resolves a named tier to its duration; Medium is the default.
func TierDuration(tier Tier) time.Duration {
	if d, ok := tierDurations[tier]; ok {
		return d
	}
	return tierDurations[Medium]
}

// Predicate is an async postcondition/precondition check.
type Predicate func(ctx context.Context) (bool, error)

// TraceMeta accumulates the metadata a body collects during one attempt:
// selector resolution, dispatched-event counts, waits performed, and
// assertions checked. Reset per call, per spec.md §9 ("Intentional
// non-behaviour").
type TraceMeta struct {
	SelectorResolved  bool
	EventsDispatched  int
	WaitsPerformed    int
	AssertionsChecked int
}

// Options configures one executeAction call (spec.md §4.4 table).
type Options struct {
	Timeout             time.Duration // explicit override; zero means use Tier
	Tier                Tier
	Retries             int // max additional attempts; default 3
	ScreenshotOnFailure bool
	Precondition        Predicate
	Postcondition       Predicate
}

// DefaultOptions matches the engine's documented defaults.
func DefaultOptions() Options {
	return Options{
		Tier:                Medium,
		Retries:             3,
		ScreenshotOnFailure: true,
	}
}

// isZero reports whether opts was never configured by the caller, in which
// case DefaultOptions applies. Retries 0 (run once, never retry) is respected
// when any other field is set; an Options with every field zero gets
// DefaultOptions' retries.
func (o Options) isZero() bool {
	return o.Timeout == 0 && o.Tier == "" && o.Retries == 0 && !o.ScreenshotOnFailure &&
		o.Precondition == nil && o.Postcondition == nil
}

func (o Options) budget() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return TierDuration(o.Tier)
}

// Result is the ActionResult<T> entity from spec.md §3.
type Result struct {
	OK              bool
	Data            interface{}
	Err             error
	StructuredError *browsererr.StructuredError
	Retries         int
	DurationMs      float64
	ScreenshotPath  string
	Trace           TraceMeta
}

// Body is the user-supplied action function. It receives the current
// attempt's context, the page, and a pointer to this call's TraceMeta so it
// can record selector/wait/assertion metadata as it runs.
type Body func(ctx context.Context, page driver.Page, meta *TraceMeta) (interface{}, error)

// ScreenshotFunc captures a failure screenshot; returns the artifact path.
type ScreenshotFunc func(ctx context.Context, page driver.Page, label string) (string, error)

// Engine runs action bodies inside the retry/verify envelope for one page.
type Engine struct {
	page       driver.Page
	sessionID  string
	dismisser  *resilience.PopupDismisser
	tracer     *trace.Store
	screenshot ScreenshotFunc
	log        *obslog.Logger
}

// NewEngine builds an engine bound to one page, recording into the shared
// trace store under sessionID.
func NewEngine(sessionID string, page driver.Page, dismisser *resilience.PopupDismisser, tracer *trace.Store, screenshot ScreenshotFunc, log *obslog.Logger) *Engine {
	return &Engine{page: page, sessionID: sessionID, dismisser: dismisser, tracer: tracer, screenshot: screenshot, log: log}
}

// Execute implements executeAction(ctx, name, options, body) from spec.md §4.4.
func (e *Engine) Execute(ctx context.Context, name string, opts Options, body Body) Result {
	if opts.isZero() {
		opts = DefaultOptions()
	}

	start := time.Now()
	startURL := e.page.URL()

	var lastErr error
	var meta TraceMeta
	attemptsPerformed := 0

	if e.dismisser != nil {
		e.dismisser.Start(ctx)
		defer e.dismisser.Stop()
	}

	for attempt := 0; attempt <= opts.Retries; attempt++ {
		meta = TraceMeta{}

		// Step 1: navigation guard, attempts >= 1 only. Only the prior
		// attempts (0..attempt-1) ran a body at this point, so the guard
		// reports attempt-1 retries, not the current (not-yet-run) attempt.
		if attempt >= 1 {
			if e.page.URL() != startURL {
				err := browsererr.NewNavigationInterrupted("page navigated from %s to %s between attempts", startURL, e.page.URL())
				return e.terminal(ctx, name, start, attempt-1, err, meta, opts)
			}
		}

		attemptsPerformed = attempt + 1

		// Step 2: one-shot popup sweep.
		if e.dismisser != nil {
			e.dismisser.SweepOnce(ctx)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, opts.budget())

		// Step 3: precondition.
		if opts.Precondition != nil {
			ok, err := opts.Precondition(attemptCtx)
			if err == nil && !ok {
				err = browsererr.NewAssertionFailed("precondition failed")
			}
			if err != nil {
				cancel()
				lastErr = err
				if !e.shouldRetry(err, attempt, opts.Retries) {
					return e.terminal(ctx, name, start, attemptsPerformed-1, err, meta, opts)
				}
				e.backoff(attempt)
				continue
			}
		}

		// Step 4: run body.
		data, err := body(attemptCtx, e.page, &meta)
		if err == nil && opts.Postcondition != nil {
			ok, pcErr := opts.Postcondition(attemptCtx)
			if pcErr == nil && !ok {
				pcErr = browsererr.NewAssertionFailed("postcondition failed")
			}
			if pcErr != nil {
				err = pcErr
			}
		}
		cancel()

		if err == nil {
			return e.success(ctx, name, start, attemptsPerformed-1, data, meta)
		}

		lastErr = err

		if !e.shouldRetry(err, attempt, opts.Retries) {
			return e.terminal(ctx, name, start, attemptsPerformed-1, err, meta, opts)
		}

		e.backoff(attempt)
	}

	return e.terminal(ctx, name, start, attemptsPerformed-1, lastErr, meta, opts)
}

// shouldRetry reports whether another attempt should run. NavigationInterrupted
// is always terminal (handled separately, before this is reached for the nav
// guard path); here it governs body/precondition/postcondition failures.
func (e *Engine) shouldRetry(err error, attempt, maxRetries int) bool {
	if !browsererr.Retryable(err) {
		return false
	}
	return attempt < maxRetries
}

func (e *Engine) backoff(attempt int) {
	base := math.Min(100*math.Pow(2, float64(attempt)), 2000)
	jitter := rand.Float64() * 500
	time.Sleep(time.Duration(base+jitter) * time.Millisecond)
}

func (e *Engine) success(ctx context.Context, name string, start time.Time, retries int, data interface{}, meta TraceMeta) Result {
	dur := msSince(start)
	if e.tracer != nil {
		e.tracer.Record(e.sessionID, trace.Entry{
			Action:            name,
			Timestamp:         start,
			DurationMs:        dur,
			OK:                true,
			Retries:           retries,
			SelectorResolved:  meta.SelectorResolved,
			EventsDispatched:  meta.EventsDispatched,
			WaitsPerformed:    meta.WaitsPerformed,
			AssertionsChecked: meta.AssertionsChecked,
		})
	}
	return Result{OK: true, Data: data, Retries: retries, DurationMs: dur, Trace: meta}
}

func (e *Engine) terminal(ctx context.Context, name string, start time.Time, retries int, err error, meta TraceMeta, opts Options) Result {
	dur := msSince(start)

	var shotPath string
	if opts.ScreenshotOnFailure && e.screenshot != nil {
		if p, shotErr := e.screenshot(ctx, e.page, name); shotErr == nil {
			shotPath = p
		} else if e.log != nil {
			e.log.Warnf("screenshot on failure for action %s: %v", name, shotErr)
		}
	}

	if e.tracer != nil {
		e.tracer.Record(e.sessionID, trace.Entry{
			Action:     name,
			Timestamp:  start,
			DurationMs: dur,
			OK:         false,
			Error:      err.Error(),
			Retries:    retries,
		})
	}

	structured, _ := browsererr.Structured(err)
	return Result{
		OK:              false,
		Err:             err,
		StructuredError: structured,
		Retries:         retries,
		DurationMs:      dur,
		ScreenshotPath:  shotPath,
		Trace:           meta,
	}
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
