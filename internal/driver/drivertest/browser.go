package drivertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/entrhq/voyager/internal/driver"
)

// Context is the fake driver.BrowserContext.
type Context struct {
	mu             sync.Mutex
	closed         bool
	pages          []*Page
	onDisconnected func()

	// NewPageFunc lets tests control what page a new context hands back;
	// defaults to a blank about:blank page.
	NewPageFunc func() *Page
}

func (c *Context) NewPage(ctx context.Context) (driver.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var p *Page
	if c.NewPageFunc != nil {
		p = c.NewPageFunc()
	} else {
		p = NewPage("about:blank")
	}
	c.pages = append(c.pages, p)
	return p, nil
}

func (c *Context) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Context) OnDisconnected(handler func()) { c.onDisconnected = handler }

func (c *Context) FireDisconnected() {
	if c.onDisconnected != nil {
		c.onDisconnected()
	}
}

func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Browser is the fake driver.Browser; each NewContext call produces a fresh
// *Context, tracked for assertions.
type Browser struct {
	mu       sync.Mutex
	contexts []*Context
	closed   bool

	NewContextFunc func(opts driver.ContextOptions) *Context
}

func (b *Browser) NewContext(ctx context.Context, opts driver.ContextOptions) (driver.BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var c *Context
	if b.NewContextFunc != nil {
		c = b.NewContextFunc(opts)
	} else {
		c = &Context{}
	}
	b.contexts = append(b.contexts, c)
	return c, nil
}

func (b *Browser) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Browser) Contexts() []*Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Context(nil), b.contexts...)
}

// Launcher is the fake driver.Launcher; LaunchCount tracks concurrency-safety
// assertions (the pool must only launch once even under concurrent acquire).
type Launcher struct {
	LaunchCount int32
	BrowserFunc func() *Browser
	stopped     bool
	mu          sync.Mutex
}

func (l *Launcher) Launch(ctx context.Context, headless bool) (driver.Browser, error) {
	atomic.AddInt32(&l.LaunchCount, 1)
	if l.BrowserFunc != nil {
		return l.BrowserFunc(), nil
	}
	return &Browser{}, nil
}

func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	return nil
}

func (l *Launcher) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}
