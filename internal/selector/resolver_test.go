package selector_test

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/driver/drivertest"
	"github.com/entrhq/voyager/internal/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmptyChainFails(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	sel := selector.NewChain()

	_, err := selector.Resolve(context.Background(), page, sel, driver.Visible, 100*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TARGET_NOT_FOUND")
}

func TestResolvePlainCSS(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#btn", &drivertest.Element{Present: true})

	res, err := selector.Resolve(context.Background(), page, selector.FromCSS("#btn"), driver.Visible, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.StrategyIndex)
	assert.Equal(t, 1, res.ChainLength)
	assert.GreaterOrEqual(t, res.ResolutionMs, 0.0)
}

func TestResolveChainFallsThroughToSecondStrategy(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("testid:action-btn", &drivertest.Element{Present: true})
	// css:#btn intentionally absent

	chain := selector.NewChain(selector.CSS("#btn"), selector.TestID("action-btn"))
	res, err := selector.Resolve(context.Background(), page, chain, driver.Visible, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, res.StrategyIndex)
	assert.Equal(t, selector.KindTestID, res.Strategy.Kind)
	assert.Equal(t, 2, res.ChainLength)
}

func TestResolveBudgetExhaustedNoMatch(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	chain := selector.NewChain(selector.CSS("#nope"), selector.TestID("also-nope"))

	_, err := selector.Resolve(context.Background(), page, chain, driver.Visible, 30*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TARGET_NOT_FOUND")
}

func TestResolveHiddenOnlyProbesFirstStrategy(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	// First strategy present (so "hidden" should fail fast since it's visible);
	// second strategy absent, which would satisfy hidden if fallbacks were tried.
	page.SetElement("css:#modal", &drivertest.Element{Present: true})

	chain := selector.NewChain(selector.CSS("#modal"), selector.TestID("modal-alt"))
	_, err := selector.Resolve(context.Background(), page, chain, driver.Hidden, 50*time.Millisecond)
	require.Error(t, err, "hidden probes only the first strategy; it is present so this must fail")
}

func TestResolveFlakyElementAppearsWithinBudget(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#late-btn", &drivertest.Element{
		Present:  true,
		AppearAt: time.Now().Add(60 * time.Millisecond),
	})

	res, err := selector.Resolve(context.Background(), page, selector.FromCSS("#late-btn"), driver.Visible, 500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, res.StrategyIndex)
}
