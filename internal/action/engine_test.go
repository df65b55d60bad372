package action_test

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/driver/drivertest"
	"github.com/entrhq/voyager/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickOpts() action.Options {
	return action.Options{Tier: action.Short, Retries: 2, Timeout: 50 * time.Millisecond}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	store := trace.NewStore()
	eng := action.NewEngine("s1", page, nil, store, nil, nil)

	res := eng.Execute(context.Background(), "noop", quickOpts(), func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		return "ok", nil
	})

	assert.True(t, res.OK)
	assert.Equal(t, "ok", res.Data)
	assert.Equal(t, 0, res.Retries)

	stats := store.Stats()
	assert.Equal(t, 1, stats.OK)
}

func TestExecuteRetriesRetryableErrorThenSucceeds(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	store := trace.NewStore()
	eng := action.NewEngine("s1", page, nil, store, nil, nil)

	attempts := 0
	res := eng.Execute(context.Background(), "flaky", quickOpts(), func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		attempts++
		if attempts < 2 {
			return nil, browsererr.NewTargetNotFound("not yet")
		}
		return "done", nil
	})

	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Retries)
	assert.Equal(t, 2, attempts)
}

func TestExecuteStopsRetryingOnNavigationInterrupted(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	store := trace.NewStore()
	eng := action.NewEngine("s1", page, nil, store, nil, nil)

	attempts := 0
	res := eng.Execute(context.Background(), "nav", quickOpts(), func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		attempts++
		return nil, browsererr.NewNavigationInterrupted("oops")
	})

	assert.False(t, res.OK)
	assert.Equal(t, 1, attempts, "NavigationInterrupted must not be retried")
	require.NotNil(t, res.StructuredError)
	assert.Equal(t, "NAVIGATION_INTERRUPTED", res.StructuredError.Code)
}

func TestExecuteExhaustsRetriesAndReturnsFailure(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	store := trace.NewStore()
	eng := action.NewEngine("s1", page, nil, store, nil, nil)

	attempts := 0
	res := eng.Execute(context.Background(), "always-fails", action.Options{Tier: action.Short, Retries: 2, Timeout: 20 * time.Millisecond}, func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
		attempts++
		return nil, browsererr.NewTargetNotFound("never found")
	})

	assert.False(t, res.OK)
	assert.Equal(t, 3, attempts) // initial + 2 retries
	assert.Equal(t, 2, res.Retries)
}

func TestExecuteDetectsNavigationBetweenAttempts(t *testing.T) {
	page := drivertest.NewPage("https://example.test/start")
	store := trace.NewStore()
	eng := action.NewEngine("s1", page, nil, store, nil, nil)

	attempts := 0
	res := eng.Execute(context.Background(), "click", quickOpts(), func(ctx context.Context, p driver.Page, meta *action.TraceMeta) (interface{}, error) {
		attempts++
		if attempts == 1 {
			page.SetURL("https://example.test/elsewhere")
			return nil, browsererr.NewTargetNotFound("first attempt fails")
		}
		return "unreachable", nil
	})

	assert.False(t, res.OK)
	assert.Equal(t, 1, attempts)
	require.NotNil(t, res.StructuredError)
	assert.Equal(t, "NAVIGATION_INTERRUPTED", res.StructuredError.Code)
	assert.Equal(t, 0, res.Retries, "only one attempt ran a body before the guard fired")
}

func TestExecuteCallsScreenshotOnFailure(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	store := trace.NewStore()

	var shotCalls int
	shotFn := func(ctx context.Context, page driver.Page, label string) (string, error) {
		shotCalls++
		return "/artifacts/shot.png", nil
	}
	eng := action.NewEngine("s1", page, nil, store, shotFn, nil)

	opts := action.Options{Tier: action.Short, Retries: 0, Timeout: 20 * time.Millisecond, ScreenshotOnFailure: true}
	res := eng.Execute(context.Background(), "fails", opts, func(ctx context.Context, p driver.Page, meta *action.TraceMeta) (interface{}, error) {
		return nil, browsererr.NewAssertionFailed("nope")
	})

	assert.False(t, res.OK)
	assert.Equal(t, 1, shotCalls)
	assert.Equal(t, "/artifacts/shot.png", res.ScreenshotPath)
}

func TestExecuteRunsPreAndPostconditions(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	store := trace.NewStore()
	eng := action.NewEngine("s1", page, nil, store, nil, nil)

	opts := quickOpts()
	preChecked, postChecked := false, false
	opts.Precondition = func(ctx context.Context) (bool, error) {
		preChecked = true
		return true, nil
	}
	opts.Postcondition = func(ctx context.Context) (bool, error) {
		postChecked = true
		return true, nil
	}

	res := eng.Execute(context.Background(), "withconds", opts, func(ctx context.Context, p driver.Page, meta *action.TraceMeta) (interface{}, error) {
		return "ok", nil
	})

	assert.True(t, res.OK)
	assert.True(t, preChecked)
	assert.True(t, postChecked)
}

func TestExecutePostconditionFailureRetries(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	store := trace.NewStore()
	eng := action.NewEngine("s1", page, nil, store, nil, nil)

	opts := quickOpts()
	calls := 0
	opts.Postcondition = func(ctx context.Context) (bool, error) {
		calls++
		return calls >= 2, nil
	}

	res := eng.Execute(context.Background(), "withpost", opts, func(ctx context.Context, p driver.Page, meta *action.TraceMeta) (interface{}, error) {
		return "ok", nil
	})

	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Retries)
}
