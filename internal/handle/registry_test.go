package handle_test

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/driver/drivertest"
	"github.com/entrhq/voyager/internal/handle"
	"github.com/entrhq/voyager/internal/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndResolveStableElement(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#widget", &drivertest.Element{Present: true})

	reg := handle.New()
	id, err := reg.Register(context.Background(), page, selector.FromCSS("#widget"), time.Second)
	require.NoError(t, err)
	assert.Len(t, id, 10)

	res, err := reg.Resolve(context.Background(), page, id, driver.Visible, time.Second)
	require.NoError(t, err)
	assert.False(t, res.Remapped)
	assert.Equal(t, 0, res.Record.RemapCount)
}

func TestResolveUnknownHandleIsStale(t *testing.T) {
	reg := handle.New()
	_, err := reg.Resolve(context.Background(), drivertest.NewPage("https://example.test"), "nonexistent", driver.Visible, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STALE_ELEMENT")
}

func TestResolveRemapsWhenWinningStrategyChanges(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#widget", &drivertest.Element{Present: true})

	chain := selector.NewChain(selector.CSS("#widget"), selector.TestID("widget-alt"))
	reg := handle.New()
	id, err := reg.Register(context.Background(), page, chain, time.Second)
	require.NoError(t, err)

	// DOM mutates: the CSS selector's target is gone, the testid alternative appears.
	page.RemoveElement("css:#widget")
	page.SetElement("testid:widget-alt", &drivertest.Element{Present: true})

	res, err := reg.Resolve(context.Background(), page, id, driver.Visible, time.Second)
	require.NoError(t, err)
	assert.True(t, res.Remapped)
	assert.Equal(t, selector.KindTestID, res.Strategy.Kind)
	assert.Equal(t, 1, res.Record.RemapCount)

	// Next resolve with the same winner should not remap again.
	res2, err := reg.Resolve(context.Background(), page, id, driver.Visible, time.Second)
	require.NoError(t, err)
	assert.False(t, res2.Remapped)
	assert.Equal(t, 1, res2.Record.RemapCount)
}

func TestReleaseRemovesHandle(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#widget", &drivertest.Element{Present: true})

	reg := handle.New()
	id, err := reg.Register(context.Background(), page, selector.FromCSS("#widget"), time.Second)
	require.NoError(t, err)

	reg.Release(id)
	reg.Release(id) // idempotent

	_, ok := reg.Get(id)
	assert.False(t, ok)
}

func TestClearEmptiesRegistry(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#a", &drivertest.Element{Present: true})
	page.SetElement("css:#b", &drivertest.Element{Present: true})

	reg := handle.New()
	idA, _ := reg.Register(context.Background(), page, selector.FromCSS("#a"), time.Second)
	idB, _ := reg.Register(context.Background(), page, selector.FromCSS("#b"), time.Second)

	reg.Clear()

	_, okA := reg.Get(idA)
	_, okB := reg.Get(idB)
	assert.False(t, okA)
	assert.False(t, okB)
}
