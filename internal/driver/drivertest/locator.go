package drivertest

import (
	"context"
	"time"

	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/driver"
)

// Locator is the fake driver.Locator bound to one key in a Page's element map.
type Locator struct {
	page *Page
	key  string
}

func (l *Locator) present() (*Element, bool) {
	el, ok := l.page.get(l.key)
	if !ok || !el.Present {
		return el, false
	}
	if !el.AppearAt.IsZero() && time.Now().Before(el.AppearAt) {
		return el, false
	}
	return el, true
}

func (l *Locator) Count(ctx context.Context) (int, error) {
	if _, ok := l.present(); ok {
		return 1, nil
	}
	return 0, nil
}

// WaitFor polls until the element reaches the requested state or the
// timeout elapses, mirroring a real driver's polling wait semantics.
func (l *Locator) WaitFor(ctx context.Context, state driver.WaitState, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	const pollInterval = 5 * time.Millisecond

	for {
		_, ok := l.present()
		switch state {
		case driver.Visible, driver.Attached:
			if ok {
				return nil
			}
		case driver.Hidden, driver.Detached:
			if !ok {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return browsererr.NewTimeoutExceeded("locator %s did not reach state %s within %s", l.key, state, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (l *Locator) mustElement() (*Element, error) {
	el, ok := l.present()
	if !ok {
		return nil, browsererr.NewTargetNotFound("element %s not present", l.key)
	}
	return el, nil
}

func (l *Locator) Click(ctx context.Context, opts driver.ClickOptions) error {
	el, err := l.mustElement()
	if err != nil {
		return err
	}
	el.Clicks++
	el.ClickLog = append(el.ClickLog, opts)
	return nil
}

func (l *Locator) Fill(ctx context.Context, value string) error {
	el, err := l.mustElement()
	if err != nil {
		return err
	}
	el.Value = value
	return nil
}

func (l *Locator) Type(ctx context.Context, value string, delay time.Duration) error {
	el, err := l.mustElement()
	if err != nil {
		return err
	}
	el.Value += value
	return nil
}

func (l *Locator) Press(ctx context.Context, key string) error {
	_, err := l.mustElement()
	return err
}

func (l *Locator) Check(ctx context.Context) error {
	el, err := l.mustElement()
	if err != nil {
		return err
	}
	el.Checked = true
	return nil
}

func (l *Locator) Uncheck(ctx context.Context) error {
	el, err := l.mustElement()
	if err != nil {
		return err
	}
	el.Checked = false
	return nil
}

func (l *Locator) SelectOption(ctx context.Context, value string) error {
	el, err := l.mustElement()
	if err != nil {
		return err
	}
	el.Value = value
	return nil
}

func (l *Locator) Hover(ctx context.Context) error {
	_, err := l.mustElement()
	return err
}

func (l *Locator) ScrollIntoView(ctx context.Context) error {
	_, err := l.mustElement()
	return err
}

func (l *Locator) TextContent(ctx context.Context) (string, error) {
	el, err := l.mustElement()
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

func (l *Locator) InnerHTML(ctx context.Context) (string, error) {
	el, err := l.mustElement()
	if err != nil {
		return "", err
	}
	return el.HTML, nil
}

func (l *Locator) GetAttribute(ctx context.Context, name string) (string, error) {
	el, err := l.mustElement()
	if err != nil {
		return "", err
	}
	if el.Attrs == nil {
		return "", nil
	}
	return el.Attrs[name], nil
}

func (l *Locator) InputValue(ctx context.Context) (string, error) {
	el, err := l.mustElement()
	if err != nil {
		return "", err
	}
	return el.Value, nil
}

func (l *Locator) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	el, err := l.mustElement()
	if err != nil {
		return nil, err
	}
	return el.EvalResult, nil
}

func (l *Locator) DragTo(ctx context.Context, target driver.Locator) error {
	_, err := l.mustElement()
	return err
}

func (l *Locator) BoundingBox(ctx context.Context) (*driver.Rect, error) {
	_, err := l.mustElement()
	if err != nil {
		return nil, err
	}
	return &driver.Rect{X: 0, Y: 0, Width: 10, Height: 10}, nil
}

// All expands a registered group (see Page.SetGroup) into one Locator per
// member key, in order; a locator with no registered group falls back to
// itself as a single-member group when present, or an empty slice.
func (l *Locator) All(ctx context.Context) ([]driver.Locator, error) {
	if keys, ok := l.page.group(l.key); ok {
		out := make([]driver.Locator, 0, len(keys))
		for _, k := range keys {
			out = append(out, &Locator{page: l.page, key: k})
		}
		return out, nil
	}
	if _, ok := l.present(); ok {
		return []driver.Locator{l}, nil
	}
	return nil, nil
}
