package playwrightdriver

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/voyager/internal/driver"
)

type locatorAdapter struct {
	l playwright.Locator
}

func (a *locatorAdapter) Count(ctx context.Context) (int, error) {
	return a.l.Count()
}

func (a *locatorAdapter) WaitFor(ctx context.Context, state driver.WaitState, timeout time.Duration) error {
	opts := playwright.LocatorWaitForOptions{}
	opts.State = waitForState(state)
	if timeout > 0 {
		ms := float64(timeout.Milliseconds())
		opts.Timeout = &ms
	}
	return a.l.WaitFor(opts)
}

func waitForState(s driver.WaitState) *playwright.WaitForSelectorState {
	switch s {
	case driver.Visible:
		return playwright.WaitForSelectorStateVisible
	case driver.Hidden:
		return playwright.WaitForSelectorStateHidden
	case driver.Attached:
		return playwright.WaitForSelectorStateAttached
	case driver.Detached:
		return playwright.WaitForSelectorStateDetached
	default:
		return playwright.WaitForSelectorStateVisible
	}
}

func (a *locatorAdapter) Click(ctx context.Context, opts driver.ClickOptions) error {
	clickOpts := playwright.LocatorClickOptions{}
	if opts.Button != "" {
		btn := playwright.MouseButton(opts.Button)
		clickOpts.Button = &btn
	}
	if opts.ClickCount > 0 {
		clickOpts.ClickCount = playwright.Int(opts.ClickCount)
	}
	return a.l.Click(clickOpts)
}

func (a *locatorAdapter) Fill(ctx context.Context, value string) error {
	return a.l.Fill(value)
}

func (a *locatorAdapter) Type(ctx context.Context, value string, delay time.Duration) error {
	opts := playwright.LocatorPressSequentiallyOptions{}
	if delay > 0 {
		ms := float64(delay.Milliseconds())
		opts.Delay = &ms
	}
	return a.l.PressSequentially(value, opts)
}

func (a *locatorAdapter) Press(ctx context.Context, key string) error {
	return a.l.Press(key)
}

func (a *locatorAdapter) Check(ctx context.Context) error {
	return a.l.Check()
}

func (a *locatorAdapter) Uncheck(ctx context.Context) error {
	return a.l.Uncheck()
}

func (a *locatorAdapter) SelectOption(ctx context.Context, value string) error {
	_, err := a.l.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
	return err
}

func (a *locatorAdapter) Hover(ctx context.Context) error {
	return a.l.Hover()
}

func (a *locatorAdapter) ScrollIntoView(ctx context.Context) error {
	return a.l.ScrollIntoViewIfNeeded()
}

func (a *locatorAdapter) TextContent(ctx context.Context) (string, error) {
	return a.l.TextContent()
}

func (a *locatorAdapter) InnerHTML(ctx context.Context) (string, error) {
	return a.l.InnerHTML()
}

func (a *locatorAdapter) GetAttribute(ctx context.Context, name string) (string, error) {
	v, err := a.l.GetAttribute(name)
	return v, err
}

func (a *locatorAdapter) InputValue(ctx context.Context) (string, error) {
	return a.l.InputValue()
}

func (a *locatorAdapter) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	return a.l.Evaluate(script, arg)
}

func (a *locatorAdapter) DragTo(ctx context.Context, target driver.Locator) error {
	other, ok := target.(*locatorAdapter)
	if !ok {
		return errNotAPlaywrightLocator
	}
	return a.l.DragTo(other.l)
}

func (a *locatorAdapter) BoundingBox(ctx context.Context) (*driver.Rect, error) {
	box, err := a.l.BoundingBox()
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, nil
	}
	return &driver.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

func (a *locatorAdapter) All(ctx context.Context) ([]driver.Locator, error) {
	locators, err := a.l.All()
	if err != nil {
		return nil, err
	}
	out := make([]driver.Locator, len(locators))
	for i, l := range locators {
		out[i] = &locatorAdapter{l: l}
	}
	return out, nil
}

var errNotAPlaywrightLocator = locatorTypeError{}

type locatorTypeError struct{}

func (locatorTypeError) Error() string {
	return "playwrightdriver: DragTo target is not a playwright-backed locator"
}

var _ driver.Locator = (*locatorAdapter)(nil)
