package playwrightdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/voyager/internal/driver"
)

type pageAdapter struct {
	p   playwright.Page
	ctx playwright.BrowserContext
}

func (a *pageAdapter) URL() string { return a.p.URL() }

func (a *pageAdapter) Title(ctx context.Context) (string, error) {
	return a.p.Title()
}

func (a *pageAdapter) Goto(ctx context.Context, url string, waitUntil string, timeout time.Duration) error {
	opts := playwright.PageGotoOptions{}
	if waitUntil != "" {
		state := playwright.WaitUntilState(waitUntil)
		opts.WaitUntil = &state
	}
	if timeout > 0 {
		ms := float64(timeout.Milliseconds())
		opts.Timeout = &ms
	}
	_, err := a.p.Goto(url, opts)
	if err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (a *pageAdapter) Reload(ctx context.Context) error {
	_, err := a.p.Reload()
	return err
}

func (a *pageAdapter) GoBack(ctx context.Context) error {
	_, err := a.p.GoBack()
	return err
}

func (a *pageAdapter) GoForward(ctx context.Context) error {
	_, err := a.p.GoForward()
	return err
}

func (a *pageAdapter) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	return a.p.Evaluate(script, arg)
}

func (a *pageAdapter) Locator(css string) driver.Locator {
	return &locatorAdapter{l: a.p.Locator(css)}
}

func (a *pageAdapter) GetByRole(role, name string, exact bool) driver.Locator {
	opts := playwright.PageGetByRoleOptions{}
	if name != "" {
		opts.Name = name
		opts.Exact = playwright.Bool(exact)
	}
	return &locatorAdapter{l: a.p.GetByRole(playwright.AriaRole(role), opts)}
}

func (a *pageAdapter) GetByLabel(text string, exact bool) driver.Locator {
	return &locatorAdapter{l: a.p.GetByLabel(text, playwright.PageGetByLabelOptions{Exact: playwright.Bool(exact)})}
}

func (a *pageAdapter) GetByText(text string, exact bool) driver.Locator {
	return &locatorAdapter{l: a.p.GetByText(text, playwright.PageGetByTextOptions{Exact: playwright.Bool(exact)})}
}

func (a *pageAdapter) GetByTestID(id string) driver.Locator {
	return &locatorAdapter{l: a.p.GetByTestId(id)}
}

func (a *pageAdapter) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	opts := playwright.PageWaitForURLOptions{}
	if timeout > 0 {
		ms := float64(timeout.Milliseconds())
		opts.Timeout = &ms
	}
	return a.p.WaitForURL(pattern, opts)
}

func (a *pageAdapter) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	opts := playwright.PageWaitForLoadStateOptions{}
	if state != "" {
		ls := playwright.LoadState(state)
		opts.State = &ls
	}
	if timeout > 0 {
		ms := float64(timeout.Milliseconds())
		opts.Timeout = &ms
	}
	return a.p.WaitForLoadState(opts)
}

func (a *pageAdapter) WaitForFunction(ctx context.Context, script string, timeout time.Duration) error {
	opts := playwright.PageWaitForFunctionOptions{}
	if timeout > 0 {
		ms := float64(timeout.Milliseconds())
		opts.Timeout = &ms
	}
	_, err := a.p.WaitForFunction(script, nil, opts)
	return err
}

func (a *pageAdapter) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return a.p.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(fullPage)})
}

func (a *pageAdapter) PDF(ctx context.Context) ([]byte, error) {
	return a.p.PDF()
}

func (a *pageAdapter) Content(ctx context.Context) (string, error) {
	return a.p.Content()
}

func (a *pageAdapter) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	cookies, err := a.ctx.Cookies()
	if err != nil {
		return nil, err
	}
	out := make([]driver.Cookie, len(cookies))
	for i, c := range cookies {
		out[i] = driver.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path}
	}
	return out, nil
}

func (a *pageAdapter) AddCookies(ctx context.Context, cookies []driver.Cookie) error {
	in := make([]playwright.OptionalCookie, len(cookies))
	for i, c := range cookies {
		in[i] = playwright.OptionalCookie{Name: c.Name, Value: c.Value, Domain: playwright.String(c.Domain), Path: playwright.String(c.Path)}
	}
	return a.ctx.AddCookies(in)
}

func (a *pageAdapter) ClearCookies(ctx context.Context) error {
	return a.ctx.ClearCookies()
}

func (a *pageAdapter) LocalStorage(ctx context.Context) (map[string]string, error) {
	v, err := a.p.Evaluate(`() => {
		const out = {};
		for (let i = 0; i < window.localStorage.length; i++) {
			const key = window.localStorage.key(i);
			out[key] = window.localStorage.getItem(key);
		}
		return out;
	}`, nil)
	if err != nil {
		return nil, fmt.Errorf("read localStorage: %w", err)
	}
	return coerceStringMap(v), nil
}

func (a *pageAdapter) SetLocalStorage(ctx context.Context, data map[string]string) error {
	_, err := a.p.Evaluate(`(entries) => {
		for (const [key, value] of Object.entries(entries)) {
			window.localStorage.setItem(key, value);
		}
	}`, data)
	if err != nil {
		return fmt.Errorf("write localStorage: %w", err)
	}
	return nil
}

func (a *pageAdapter) OnDialog(handler func(driver.Dialog)) {
	a.p.On("dialog", func(d playwright.Dialog) {
		handler(&dialogAdapter{d: d})
	})
}

func (a *pageAdapter) OnCrash(handler func()) {
	a.p.On("crash", func() { handler() })
}

func (a *pageAdapter) OnClose(handler func()) {
	a.p.On("close", func() { handler() })
}

func (a *pageAdapter) Close(ctx context.Context) error {
	return a.p.Close()
}

type dialogAdapter struct {
	d playwright.Dialog
}

func (a *dialogAdapter) Dismiss(ctx context.Context) error {
	return a.d.Dismiss()
}

func coerceStringMap(v interface{}) map[string]string {
	raw, ok := v.(map[string]interface{})
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

var _ driver.Page = (*pageAdapter)(nil)
var _ driver.Dialog = (*dialogAdapter)(nil)
