package playwrightdriver

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/voyager/internal/driver"
)

type browserAdapter struct {
	b playwright.Browser
}

func (a *browserAdapter) NewContext(ctx context.Context, opts driver.ContextOptions) (driver.BrowserContext, error) {
	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		contextOpts.Viewport = &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		}
	}
	bc, err := a.b.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	return &contextAdapter{bc: bc}, nil
}

func (a *browserAdapter) Close(ctx context.Context) error {
	return a.b.Close()
}

type contextAdapter struct {
	bc playwright.BrowserContext
}

func (a *contextAdapter) NewPage(ctx context.Context) (driver.Page, error) {
	p, err := a.bc.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &pageAdapter{p: p, ctx: a.bc}, nil
}

func (a *contextAdapter) Close(ctx context.Context) error {
	return a.bc.Close()
}

func (a *contextAdapter) OnDisconnected(handler func()) {
	a.bc.On("close", func() { handler() })
}

var _ driver.Browser = (*browserAdapter)(nil)
var _ driver.BrowserContext = (*contextAdapter)(nil)
