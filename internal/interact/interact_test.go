package interact_test

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/driver/drivertest"
	"github.com/entrhq/voyager/internal/interact"
	"github.com/entrhq/voyager/internal/selector"
	"github.com/entrhq/voyager/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(page driver.Page) *action.Engine {
	return action.NewEngine("s1", page, nil, trace.NewStore(), nil, nil)
}

func quickOpts() action.Options {
	return action.Options{Tier: action.Short, Retries: 1, Timeout: 200 * time.Millisecond}
}

func TestClickResolvesScrollsAndClicks(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#btn", &drivertest.Element{Present: true})
	eng := newEngine(page)

	body := interact.Click(selector.FromCSS("#btn"), driver.ClickOptions{}, time.Second)
	res := eng.Execute(context.Background(), "click", quickOpts(), body)

	require.True(t, res.OK)
	out, ok := res.Data.(interact.ClickResult)
	require.True(t, ok)
	assert.Equal(t, "https://example.test", out.URL)
}

func TestClickDedupSkipsRepeatWithinWindow(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	el := &drivertest.Element{Present: true}
	page.SetElement("css:#btn", el)
	eng := newEngine(page)

	body := interact.Click(selector.FromCSS("#btn"), driver.ClickOptions{}, time.Second)

	res1 := eng.Execute(context.Background(), "click", quickOpts(), body)
	require.True(t, res1.OK)
	assert.Equal(t, 1, el.Clicks)

	res2 := eng.Execute(context.Background(), "click", quickOpts(), body)
	require.True(t, res2.OK)
	assert.Equal(t, 1, el.Clicks, "second click within the dedup window must be a no-op")
}

func TestClickFallsBackAcrossChainToPresentElement(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#fallback", &drivertest.Element{Present: true})
	eng := newEngine(page)

	chain := selector.NewChain(selector.CSS("#missing"), selector.CSS("#fallback"))
	body := interact.Click(chain, driver.ClickOptions{}, time.Second)

	res := eng.Execute(context.Background(), "click", quickOpts(), body)
	require.True(t, res.OK, "should resolve against the second strategy once the first is absent")
}

func TestClickFailsWhenNoStrategyInChainEverAppears(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	eng := newEngine(page)

	chain := selector.NewChain(selector.CSS("#a"), selector.CSS("#b"))
	body := interact.Click(chain, driver.ClickOptions{}, 10*time.Millisecond)

	opts := action.Options{Tier: action.Short, Retries: 1, Timeout: 50 * time.Millisecond}
	res := eng.Execute(context.Background(), "click", opts, body)

	assert.False(t, res.OK, "neither element ever appears, so the action exhausts its retries")
}

func TestTypeFillVerifiesReadback(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#email", &drivertest.Element{Present: true})
	eng := newEngine(page)

	body := interact.Type(selector.FromCSS("#email"), "a@b.com", interact.TypeOptions{Mode: interact.ModeFill}, time.Second)
	res := eng.Execute(context.Background(), "type", quickOpts(), body)

	require.True(t, res.OK)
	out := res.Data.(interact.TypeResult)
	assert.Equal(t, "a@b.com", out.Value)
}

func TestTypeSequentialAppendsKeystrokes(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	el := &drivertest.Element{Present: true}
	page.SetElement("css:#box", el)
	eng := newEngine(page)

	body := interact.Type(selector.FromCSS("#box"), "hi", interact.TypeOptions{Mode: interact.ModeSequential}, time.Second)
	res := eng.Execute(context.Background(), "type", quickOpts(), body)

	require.True(t, res.OK)
	assert.Equal(t, "hi", el.Value)
}

func TestTypePasteDispatchesViaClipboardEvent(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#box", &drivertest.Element{Present: true})
	eng := newEngine(page)

	body := interact.Type(selector.FromCSS("#box"), "pasted", interact.TypeOptions{Mode: interact.ModePaste}, time.Second)
	res := eng.Execute(context.Background(), "type", quickOpts(), body)

	require.True(t, res.OK)
}

func TestTypeNativeSetterDispatchesViaEvaluate(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#box", &drivertest.Element{Present: true})
	eng := newEngine(page)

	body := interact.Type(selector.FromCSS("#box"), "native", interact.TypeOptions{Mode: interact.ModeNativeSetter}, time.Second)
	res := eng.Execute(context.Background(), "type", quickOpts(), body)

	require.True(t, res.OK)
}

func TestSelectVerifiesReadback(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#country", &drivertest.Element{Present: true})
	eng := newEngine(page)

	body := interact.Select(selector.FromCSS("#country"), "US", time.Second)
	res := eng.Execute(context.Background(), "select", quickOpts(), body)

	require.True(t, res.OK)
	assert.Equal(t, "US", res.Data)
}

func TestCheckVerifiesCheckedState(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#tos", &drivertest.Element{Present: true, EvalResult: true})
	eng := newEngine(page)

	body := interact.Check(selector.FromCSS("#tos"), time.Second)
	res := eng.Execute(context.Background(), "check", quickOpts(), body)

	require.True(t, res.OK)
	assert.Equal(t, true, res.Data)
}

func TestCheckFailsAssertionWhenReadbackDisagrees(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#tos", &drivertest.Element{Present: true, EvalResult: false})
	eng := newEngine(page)

	opts := action.Options{Tier: action.Short, Retries: 0, Timeout: 200 * time.Millisecond}
	body := interact.Check(selector.FromCSS("#tos"), time.Second)
	res := eng.Execute(context.Background(), "check", opts, body)

	assert.False(t, res.OK)
	require.NotNil(t, res.StructuredError)
	assert.Equal(t, "ASSERTION_FAILED", res.StructuredError.Code)
}

func TestUncheckClearsState(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#tos", &drivertest.Element{Present: true, Checked: true, EvalResult: false})
	eng := newEngine(page)

	body := interact.Uncheck(selector.FromCSS("#tos"), time.Second)
	res := eng.Execute(context.Background(), "uncheck", quickOpts(), body)

	require.True(t, res.OK)
	assert.Equal(t, false, res.Data)
}

func TestHoverResolvesAndHovers(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#tooltip-target", &drivertest.Element{Present: true})
	eng := newEngine(page)

	body := interact.Hover(selector.FromCSS("#tooltip-target"), time.Second)
	res := eng.Execute(context.Background(), "hover", quickOpts(), body)

	assert.True(t, res.OK)
}

func TestDragAndDropResolvesBothEndpoints(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#src", &drivertest.Element{Present: true})
	page.SetElement("css:#dst", &drivertest.Element{Present: true})
	eng := newEngine(page)

	body := interact.DragAndDrop(selector.FromCSS("#src"), selector.FromCSS("#dst"), time.Second)
	res := eng.Execute(context.Background(), "dragAndDrop", quickOpts(), body)

	assert.True(t, res.OK)
}

func TestFillMapFillsEveryEntryAndReportsSuccess(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#first", &drivertest.Element{Present: true})
	page.SetElement("css:#last", &drivertest.Element{Present: true})
	eng := newEngine(page)

	entries := []interact.FillEntry{
		{Key: "first", Selector: selector.FromCSS("#first"), Value: "Ada"},
		{Key: "last", Selector: selector.FromCSS("#last"), Value: "Lovelace"},
	}
	body := interact.FillMap(entries, time.Second)
	res := eng.Execute(context.Background(), "fillMap", quickOpts(), body)

	require.True(t, res.OK)
	out := res.Data.(interact.FillMapResult)
	assert.ElementsMatch(t, []string{"first", "last"}, out.Filled)
	assert.Empty(t, out.Failed)
}

func TestFillMapFailsWholeBatchOnOneMissingField(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#first", &drivertest.Element{Present: true})
	eng := newEngine(page)

	entries := []interact.FillEntry{
		{Key: "first", Selector: selector.FromCSS("#first"), Value: "Ada"},
		{Key: "missing", Selector: selector.FromCSS("#missing"), Value: "x"},
	}
	opts := action.Options{Tier: action.Short, Retries: 0, Timeout: 200 * time.Millisecond}
	body := interact.FillMap(entries, time.Second)
	res := eng.Execute(context.Background(), "fillMap", opts, body)

	assert.False(t, res.OK)
}
