// Package driver declares the small capability set the core consumes from
// whatever library actually speaks to the browser (spec.md §1: "out of
// scope... queried via a small capability set"). playwrightdriver provides
// the concrete playwright-go backed implementation; tests use an in-memory
// fake implementing the same interfaces.
package driver

import (
	"context"
	"time"
)

// WaitState is one of the four states a selector resolution can wait for.
type WaitState string

const (
	Visible  WaitState = "visible"
	Hidden   WaitState = "hidden"
	Attached WaitState = "attached"
	Detached WaitState = "detached"
)

// Locator is a resolved reference to zero-or-more elements, mirroring the
// subset of playwright-go's Locator the core needs.
type Locator interface {
	Count(ctx context.Context) (int, error)
	WaitFor(ctx context.Context, state WaitState, timeout time.Duration) error
	Click(ctx context.Context, opts ClickOptions) error
	Fill(ctx context.Context, value string) error
	Type(ctx context.Context, value string, delay time.Duration) error
	Press(ctx context.Context, key string) error
	Check(ctx context.Context) error
	Uncheck(ctx context.Context) error
	SelectOption(ctx context.Context, value string) error
	Hover(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	TextContent(ctx context.Context) (string, error)
	InnerHTML(ctx context.Context) (string, error)
	GetAttribute(ctx context.Context, name string) (string, error)
	InputValue(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error)
	DragTo(ctx context.Context, target Locator) error
	BoundingBox(ctx context.Context) (*Rect, error)
	// All expands a multi-match locator into one Locator per matched
	// element, in document order, for primitives that enumerate (getAll,
	// structured extraction).
	All(ctx context.Context) ([]Locator, error)
}

type Rect struct {
	X, Y, Width, Height float64
}

// ClickOptions mirrors the handful of click knobs the interact layer needs.
type ClickOptions struct {
	Button     string
	ClickCount int
}

// Page is the capability set against which selectors resolve and navigation
// happens.
type Page interface {
	URL() string
	Title(ctx context.Context) (string, error)
	Goto(ctx context.Context, url string, waitUntil string, timeout time.Duration) error
	Reload(ctx context.Context) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error)
	Locator(css string) Locator
	GetByRole(role, name string, exact bool) Locator
	GetByLabel(text string, exact bool) Locator
	GetByText(text string, exact bool) Locator
	GetByTestID(id string) Locator
	WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error
	WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error
	WaitForFunction(ctx context.Context, script string, timeout time.Duration) error
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	PDF(ctx context.Context) ([]byte, error)
	Content(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	AddCookies(ctx context.Context, cookies []Cookie) error
	ClearCookies(ctx context.Context) error
	LocalStorage(ctx context.Context) (map[string]string, error)
	SetLocalStorage(ctx context.Context, data map[string]string) error
	OnDialog(handler func(Dialog))
	OnCrash(handler func())
	OnClose(handler func())
	Close(ctx context.Context) error
}

// Dialog is a native alert/confirm/prompt dialog the page raised.
type Dialog interface {
	Dismiss(ctx context.Context) error
}

// Cookie is a minimal cookie shape, enough to snapshot/restore session state.
type Cookie struct {
	Name, Value, Domain, Path string
}

// BrowserContext is the isolated context a session's page lives in.
type BrowserContext interface {
	NewPage(ctx context.Context) (Page, error)
	Close(ctx context.Context) error
	OnDisconnected(handler func())
}

// Browser is the shared handle the pool launches once and reuses.
type Browser interface {
	NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error)
	Close(ctx context.Context) error
}

// ContextOptions configures a new isolated browser context.
type ContextOptions struct {
	ViewportWidth, ViewportHeight int
}

// Launcher abstracts starting the shared browser (playwright.Run +
// Chromium.Launch in the concrete implementation).
type Launcher interface {
	Launch(ctx context.Context, headless bool) (Browser, error)
	Stop() error
}
