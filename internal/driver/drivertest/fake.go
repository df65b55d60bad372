// Package drivertest provides an in-memory fake implementation of the
// driver capability set, used across the runtime's unit tests instead of a
// real browser binary — matching the teacher's style of testing against
// fakes (pkg/config's AutoApprovalSection tests, pkg/executor/headless's
// ConstraintManager tests) rather than live subprocesses.
package drivertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/voyager/internal/driver"
)

// Element is the fake DOM node a locator key maps to.
type Element struct {
	Present  bool
	AppearAt time.Time // zero means "present from the start" when Present is true
	Text     string
	HTML     string
	Attrs    map[string]string
	Value    string
	Checked  bool
	Clicks   int
	ClickLog []driver.ClickOptions

	// EvalResult is returned by a Locator-scoped Evaluate call against this
	// element; nil by default, matching the package-level eval stub.
	EvalResult interface{}
}

// Page is the fake driver.Page. Keys into Elements are "kind:ident", e.g.
// "css:#btn", "testid:action-btn", "aria:button:Submit", "text:Submit:true",
// "label:Email".
type Page struct {
	mu       sync.Mutex
	url      string
	title    string
	elements map[string]*Element
	groups   map[string][]string
	closed   bool
	crashed  bool

	onDialog func(driver.Dialog)
	onCrash  func()
	onClose  func()

	evalFn  func(script string) interface{}
	content string

	NavHistory []string

	cookies      []driver.Cookie
	localStorage map[string]string
}

func NewPage(url string) *Page {
	return &Page{url: url, elements: make(map[string]*Element)}
}

func (p *Page) SetElement(key string, el *Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[key] = el
}

func (p *Page) RemoveElement(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, key)
}

// SetGroup registers the ordered element keys a multi-match locator on css
// should expand to when All is called.
func (p *Page) SetGroup(css string, elementKeys []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.groups == nil {
		p.groups = make(map[string][]string)
	}
	p.groups["css:"+css] = append([]string(nil), elementKeys...)
}

func (p *Page) group(key string) ([]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys, ok := p.groups[key]
	return keys, ok
}

func (p *Page) get(key string) (*Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[key]
	return el, ok
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) SetURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = u
	p.NavHistory = append(p.NavHistory, u)
}

func (p *Page) Title(ctx context.Context) (string, error) { return p.title, nil }
func (p *Page) SetTitle(t string)                         { p.title = t }

func (p *Page) Goto(ctx context.Context, url string, waitUntil string, timeout time.Duration) error {
	p.SetURL(url)
	return nil
}
func (p *Page) Reload(ctx context.Context) error    { return nil }
func (p *Page) GoBack(ctx context.Context) error    { return nil }
func (p *Page) GoForward(ctx context.Context) error { return nil }

func (p *Page) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	if p.evalFn != nil {
		return p.evalFn(script), nil
	}
	return "complete", nil
}

func (p *Page) SetEvalFunc(fn func(script string) interface{}) { p.evalFn = fn }

func (p *Page) Locator(css string) driver.Locator {
	return &Locator{page: p, key: "css:" + css}
}
func (p *Page) GetByRole(role, name string, exact bool) driver.Locator {
	return &Locator{page: p, key: fmt.Sprintf("aria:%s:%s", role, name)}
}
func (p *Page) GetByLabel(text string, exact bool) driver.Locator {
	return &Locator{page: p, key: "label:" + text}
}
func (p *Page) GetByText(text string, exact bool) driver.Locator {
	return &Locator{page: p, key: fmt.Sprintf("text:%s:%v", text, exact)}
}
func (p *Page) GetByTestID(id string) driver.Locator {
	return &Locator{page: p, key: "testid:" + id}
}

func (p *Page) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	return nil
}
func (p *Page) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	return nil
}
func (p *Page) WaitForFunction(ctx context.Context, script string, timeout time.Duration) error {
	return nil
}
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return []byte("fake-png"), nil
}
func (p *Page) PDF(ctx context.Context) ([]byte, error) { return []byte("%PDF-fake"), nil }

// SetContent overrides what Content returns; tests use this to feed
// getPageContent a specific document.
func (p *Page) SetContent(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = html
}

func (p *Page) Content(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.content != "" {
		return p.content, nil
	}
	return "<html><body>fake</body></html>", nil
}

func (p *Page) Cookies(ctx context.Context) ([]driver.Cookie, error) { return p.cookies, nil }
func (p *Page) AddCookies(ctx context.Context, cookies []driver.Cookie) error {
	p.cookies = append(p.cookies, cookies...)
	return nil
}
func (p *Page) ClearCookies(ctx context.Context) error { p.cookies = nil; return nil }

func (p *Page) LocalStorage(ctx context.Context) (map[string]string, error) {
	if p.localStorage == nil {
		return map[string]string{}, nil
	}
	return p.localStorage, nil
}
func (p *Page) SetLocalStorage(ctx context.Context, data map[string]string) error {
	p.localStorage = data
	return nil
}

func (p *Page) OnDialog(handler func(driver.Dialog)) { p.onDialog = handler }
func (p *Page) OnCrash(handler func())               { p.onCrash = handler }
func (p *Page) OnClose(handler func())               { p.onClose = handler }

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	if p.onClose != nil {
		p.onClose()
	}
	return nil
}

func (p *Page) Crash() {
	p.mu.Lock()
	p.crashed = true
	p.mu.Unlock()
	if p.onCrash != nil {
		p.onCrash()
	}
}

func (p *Page) FireDialog(d driver.Dialog) {
	if p.onDialog != nil {
		p.onDialog(d)
	}
}
