// Package playwrightdriver implements the internal/driver interfaces on
// top of github.com/playwright-community/playwright-go, the concrete
// backend the pool launches in production.
package playwrightdriver

import (
	"context"
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/voyager/internal/driver"
)

// Launcher starts and stops the shared Playwright process and launches the
// Chromium browser the pool reuses across contexts.
type Launcher struct {
	pw *playwright.Playwright
}

// NewLauncher installs (if needed) and starts Playwright, discarding its
// own stdout/stderr so it never interleaves with structured logging.
func NewLauncher() (*Launcher, error) {
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	return &Launcher{pw: pw}, nil
}

func (l *Launcher) Launch(ctx context.Context, headless bool) (driver.Browser, error) {
	browser, err := l.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &browserAdapter{b: browser}, nil
}

func (l *Launcher) Stop() error {
	if l.pw == nil {
		return nil
	}
	return l.pw.Stop()
}

var _ driver.Launcher = (*Launcher)(nil)
