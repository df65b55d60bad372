package semantic_test

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/driver/drivertest"
	"github.com/entrhq/voyager/internal/interact"
	"github.com/entrhq/voyager/internal/selector"
	"github.com/entrhq/voyager/internal/semantic"
	"github.com/entrhq/voyager/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(page *drivertest.Page) *action.Engine {
	return action.NewEngine("s1", page, nil, trace.NewStore(), nil, nil)
}

func quickOpts() action.Options {
	return action.Options{Tier: action.Short, Retries: 0, Timeout: 300 * time.Millisecond}
}

const emailNameKey = `css:input[name="email"], textarea[name="email"], select[name="email"]`

func TestSetFieldFastPathUsesNameSelectorWhenPresent(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement(emailNameKey, &drivertest.Element{Present: true})
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "setField", quickOpts(),
		semantic.SetField("email", "a@b.com", interact.TypeOptions{Mode: interact.ModeFill}, time.Second))

	require.True(t, res.OK)
	assert.True(t, res.Trace.SelectorResolved)
}

func TestSetFieldFastPathFallsBackToAriaLabelWhenNameAbsent(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement(`css:[aria-label="email"]`, &drivertest.Element{Present: true})
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "setField", quickOpts(),
		semantic.SetField("email", "a@b.com", interact.TypeOptions{Mode: interact.ModeFill}, time.Second))

	require.True(t, res.OK)
}

func TestSetFieldFallsBackToLabelWhenNoAttributeCandidateMatches(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("label:email", &drivertest.Element{Present: true})
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "setField", quickOpts(),
		semantic.SetField("email", "a@b.com", interact.TypeOptions{Mode: interact.ModeFill}, time.Second))

	require.True(t, res.OK)
}

func TestSetFieldFailsWhenNoCandidateEverResolves(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "setField", quickOpts(),
		semantic.SetField("email", "a@b.com", interact.TypeOptions{Mode: interact.ModeFill}, 20*time.Millisecond))

	assert.False(t, res.OK)
}

func TestSubmitFormClicksDefaultSubmitButton(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	el := &drivertest.Element{Present: true}
	page.SetElement("css:button[type=submit]", el)
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "submitForm", quickOpts(), semantic.SubmitForm("", time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, el.Clicks)
}

func TestSubmitFormScopesToContainer(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	el := &drivertest.Element{Present: true}
	page.SetElement(`css:#checkout button[type=submit]`, el)
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "submitForm", quickOpts(), semantic.SubmitForm("#checkout ", time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, el.Clicks)
}

func TestApplyFilterSetsFieldThenClicksDefaultApplyButton(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement(emailNameKey, &drivertest.Element{Present: true})
	applyBtn := &drivertest.Element{Present: true}
	page.SetElement("aria:button:Apply", applyBtn)
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "applyFilter", quickOpts(),
		semantic.ApplyFilter("email", "a@b.com", "", false, "", time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, applyBtn.Clicks)
}

func TestApplyFilterSkipApplySkipsTheClick(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement(emailNameKey, &drivertest.Element{Present: true})
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "applyFilter", quickOpts(),
		semantic.ApplyFilter("email", "a@b.com", "", true, "", time.Second))

	require.True(t, res.OK)
}

func TestApplyFilterUsesExplicitApplySelectorWhenGiven(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement(emailNameKey, &drivertest.Element{Present: true})
	applyBtn := &drivertest.Element{Present: true}
	page.SetElement("css:#go", applyBtn)
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "applyFilter", quickOpts(),
		semantic.ApplyFilter("email", "a@b.com", "#go", false, "", time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, applyBtn.Clicks)
}

func TestSelectAutocompleteTypesThenClicksMatchingOption(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#search", &drivertest.Element{Present: true})
	option := &drivertest.Element{Present: true}
	page.SetElement("aria:option:Widget", option)
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "selectAutocomplete", quickOpts(),
		semantic.SelectAutocomplete(selector.FromCSS("#search"), "Widget", time.Second))

	require.True(t, res.OK)
	assert.Equal(t, 1, option.Clicks)
}

func TestSetDateFieldPressesCloseKeysAndVerifiesNonEmptyValue(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	el := &drivertest.Element{Present: true, Value: "2026-08-03"}
	page.SetElement("css:#date", el)
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "setDateField", quickOpts(),
		semantic.SetDateField(selector.FromCSS("#date"), "2026-08-03", time.Second))

	require.True(t, res.OK)
	assert.Equal(t, "2026-08-03", res.Data)
}

func TestSetDateFieldFailsAssertionWhenValueStaysEmpty(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	page.SetElement("css:#date", &drivertest.Element{Present: true, Value: ""})
	eng := newEngine(page)

	res := eng.Execute(context.Background(), "setDateField", quickOpts(),
		semantic.SetDateField(selector.FromCSS("#date"), "2026-08-03", time.Second))

	assert.False(t, res.OK)
}
