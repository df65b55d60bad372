package pool

import (
	"context"
	"sync"
	"time"

	"github.com/entrhq/voyager/internal/session"
)

// StartHealthMonitor begins the per-session readyState probe loop described
// in spec.md §4.8. Safe to call once; a second call is a no-op.
func (p *Pool) StartHealthMonitor(ctx context.Context) {
	p.mu.Lock()
	if p.healthCancel != nil {
		p.mu.Unlock()
		return
	}
	monitorCtx, cancel := context.WithCancel(ctx)
	p.healthCancel = cancel
	p.healthDone = make(chan struct{})
	p.mu.Unlock()

	go func() {
		defer close(p.healthDone)
		ticker := time.NewTicker(p.opts.HealthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				p.probeAll(monitorCtx)
			}
		}
	}()
}

// StopHealthMonitor halts the probe loop. Safe to call multiple times.
func (p *Pool) StopHealthMonitor() {
	p.mu.Lock()
	cancel := p.healthCancel
	done := p.healthDone
	p.healthCancel = nil
	p.healthDone = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Pool) probeAll(ctx context.Context) {
	p.mu.Lock()
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			p.probeOne(ctx, id)
		}(id)
	}
	wg.Wait()
}

// probeOne races a readyState evaluate against the probe timeout, per
// spec.md §4.8. On maxFailures consecutive failures it marks the session
// unhealthy and triggers auto-recovery.
func (p *Pool) probeOne(ctx context.Context, id string) {
	p.mu.Lock()
	sess, ok := p.sessions[id]
	p.mu.Unlock()
	if !ok {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.opts.ProbeTimeout)
	defer cancel()

	type probeResult struct {
		state string
		err   error
	}
	resultCh := make(chan probeResult, 1)
	go func() {
		v, err := sess.Page().Evaluate(probeCtx, "document.readyState", nil)
		state, _ := v.(string)
		resultCh <- probeResult{state: state, err: err}
	}()

	var res probeResult
	select {
	case res = <-resultCh:
	case <-probeCtx.Done():
		res = probeResult{err: probeCtx.Err()}
	}

	validStates := map[string]bool{"loading": true, "interactive": true, "complete": true}

	p.mu.Lock()
	if res.err != nil || !validStates[res.state] {
		p.failures[id]++
		fails := p.failures[id]
		p.mu.Unlock()

		if fails >= p.opts.MaxProbeFailures {
			sess.MarkUnhealthy()
			p.recoverSession(ctx, id)
		}
		return
	}
	p.failures[id] = 0
	p.mu.Unlock()
	sess.MarkHealthy()
}

// OnBrowserDisconnected broadcasts recovery to every tracked session, as the
// pool does on a browser.disconnected event (spec.md §4.8).
func (p *Pool) OnBrowserDisconnected(ctx context.Context) {
	p.mu.Lock()
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.recoverSession(ctx, id)
	}
}

// recoverSession implements the five-step auto-recovery algorithm from
// spec.md §4.8, preserving the session's id across context replacement.
func (p *Pool) recoverSession(ctx context.Context, id string) {
	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return
	}
	failing, ok := p.sessions[id]
	profile := ""
	if ok {
		profile = failing.Profile
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	// 2. Snapshot the failing session; fall back to the profile's stored copy.
	snap, err := failing.Snapshot(ctx)
	if err != nil && profile != "" {
		if dir, derr := p.profilePath(profile); derr == nil {
			snap, _ = loadSnapshot(dir)
		}
	}

	// 3. Untrack and close best-effort.
	p.mu.Lock()
	delete(p.sessions, id)
	delete(p.failures, id)
	p.mu.Unlock()
	_ = failing.Close(ctx)

	// 4. Launch a replacement context + page under the same id; a shared
	// browser that is gone is relaunched headless.
	browser, err := p.ensureBrowser(ctx, true)
	if err != nil {
		if p.log != nil {
			p.log.Errorf("auto-recovery for session %s: relaunch failed: %v", id, err)
		}
		return
	}
	bctx, err := browser.NewContext(ctx, contextOptionsFor(p.opts))
	if err != nil {
		if p.log != nil {
			p.log.Errorf("auto-recovery for session %s: new context failed: %v", id, err)
		}
		return
	}
	page, err := bctx.NewPage(ctx)
	if err != nil {
		if p.log != nil {
			p.log.Errorf("auto-recovery for session %s: new page failed: %v", id, err)
		}
		_ = bctx.Close(ctx)
		return
	}

	replacement := session.New(id, profile, bctx, page)
	if snap != nil {
		if err := replacement.Restore(ctx, snap, p.opts.NavigationTimeout); err != nil && p.log != nil {
			p.log.Warnf("auto-recovery for session %s: restore failed: %v", id, err)
		}
	}

	// 5. Re-insert under the same id and resume health tracking.
	p.mu.Lock()
	p.sessions[id] = replacement
	p.failures[id] = 0
	p.mu.Unlock()
}
