package wait_test

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/driver/drivertest"
	"github.com/entrhq/voyager/internal/selector"
	"github.com/entrhq/voyager/internal/trace"
	"github.com/entrhq/voyager/internal/wait"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(page *drivertest.Page) *action.Engine {
	return action.NewEngine("s1", page, nil, trace.NewStore(), nil, nil)
}

func quickOpts() action.Options {
	return action.Options{Tier: action.Short, Retries: 0, Timeout: 200 * time.Millisecond}
}

func TestForSelectorRecordsAWaitAndResolves(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#ready", &drivertest.Element{Present: true})
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "wait", quickOpts(), wait.ForSelector(selector.FromCSS("#ready"), driver.Visible, time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, res.Trace.WaitsPerformed)
	assert.True(t, res.Trace.SelectorResolved)
}

func TestForSelectorFailsWhenNeverPresent(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "wait", quickOpts(), wait.ForSelector(selector.FromCSS("#missing"), driver.Visible, 20*time.Millisecond))

	assert.False(t, res.OK)
}

func TestForConditionDelegatesToWaitForFunction(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "wait", quickOpts(), wait.ForCondition("() => true", time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, res.Trace.WaitsPerformed)
}

func TestForNetworkIdleDelegatesToWaitForLoadState(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "wait", quickOpts(), wait.ForNetworkIdle(time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, res.Trace.WaitsPerformed)
}

func TestForURLDelegatesToWaitForURL(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "wait", quickOpts(), wait.ForURL("**/done", time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, res.Trace.WaitsPerformed)
}
