package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/approval"
	"github.com/entrhq/voyager/internal/artifacts"
	"github.com/entrhq/voyager/internal/browsererr"
	"github.com/entrhq/voyager/internal/config"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/handle"
	"github.com/entrhq/voyager/internal/obslog"
	"github.com/entrhq/voyager/internal/pool"
	"github.com/entrhq/voyager/internal/redact"
	"github.com/entrhq/voyager/internal/resilience"
	"github.com/entrhq/voyager/internal/session"
	"github.com/entrhq/voyager/internal/store"
	"github.com/entrhq/voyager/internal/trace"
)

// sessionState is the tool-layer bookkeeping kept alongside each pooled
// browser session: its handle registry (spec.md §4.6) persists across tool
// calls even though the action engine itself is built fresh per call.
type sessionState struct {
	handles *handle.Registry
}

// Runtime wires the core engine packages together behind the tool surface:
// one shared pool, persistence layer, artifact writer, trace store, and
// approval/config/redaction policy, plus per-session handle registries.
type Runtime struct {
	Pool      *pool.Pool
	Sessions  store.SessionStore
	ActionLog store.ActionLog
	Artifacts *artifacts.Writer
	Tracer    *trace.Store
	Approval  approval.Resolver
	Config    *config.Manager
	Redactor  *redact.Matcher
	Log       *obslog.Logger

	// DefaultHeadless is the headless mode new sessions launch with when
	// a tool call doesn't override it, set once from process flags.
	DefaultHeadless bool

	mu     sync.Mutex
	states map[string]*sessionState
}

// NewRuntime assembles a Runtime from already-constructed collaborators; it
// performs no I/O itself.
func NewRuntime(p *pool.Pool, sessions store.SessionStore, actionLog store.ActionLog, artifactsWriter *artifacts.Writer, tracer *trace.Store, resolver approval.Resolver, cfg *config.Manager, redactor *redact.Matcher, log *obslog.Logger) *Runtime {
	return &Runtime{
		Pool:            p,
		Sessions:        sessions,
		ActionLog:       actionLog,
		Artifacts:       artifactsWriter,
		Tracer:          tracer,
		Approval:        resolver,
		Config:          cfg,
		Redactor:        redactor,
		Log:             log,
		DefaultHeadless: true,
		states:          make(map[string]*sessionState),
	}
}

func (r *Runtime) stateFor(sessionID string) *sessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[sessionID]
	if !ok {
		st = &sessionState{handles: handle.New()}
		r.states[sessionID] = st
	}
	return st
}

func (r *Runtime) dropState(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, sessionID)
}

// handlesFor returns the per-session handle registry, creating it on first
// use (e.g. a session restored from the store rather than opened fresh).
func (r *Runtime) handlesFor(sessionID string) *handle.Registry {
	return r.stateFor(sessionID).handles
}

// resolveSession looks up a live pool session by ID, reporting the taxonomy
// error the tool layer surfaces for an unknown or dead session.
func (r *Runtime) resolveSession(sessionID string) (*session.Session, error) {
	sess, ok := r.Pool.Get(sessionID)
	if !ok {
		return nil, browsererr.NewSessionUnhealthy("no active session %q", sessionID)
	}
	return sess, nil
}

// screenshotFunc builds the action engine's failure-screenshot hook for one
// session, writing through the shared artifact writer.
func (r *Runtime) screenshotFunc(sessionID string) action.ScreenshotFunc {
	return func(ctx context.Context, page driver.Page, actionName string) (string, error) {
		png, err := page.Screenshot(ctx, false)
		if err != nil {
			return "", err
		}
		return r.Artifacts.WriteScreenshot(sessionID, actionName, "failure", png)
	}
}

// runAction builds a fresh action engine bound to the session's current
// page, runs body inside it, and persists the resulting ActionLogEntry
// (redaction happens inside the store's Append, via its installed Matcher).
func (r *Runtime) runAction(ctx context.Context, sess *session.Session, name string, selectorStr string, input map[string]interface{}, opts action.Options, body action.Body) action.Result {
	page := sess.Page()
	dismisser := resilience.NewPopupDismisser(page, nil, 0)
	eng := action.NewEngine(sess.ID, page, dismisser, r.Tracer, r.screenshotFunc(sess.ID), r.Log)

	result := eng.Execute(ctx, name, opts, body)
	sess.Touch()
	r.logAction(ctx, sess.ID, name, selectorStr, input, result)
	return result
}

func (r *Runtime) logAction(ctx context.Context, sessionID, name, selectorStr string, input map[string]interface{}, result action.Result) {
	if r.ActionLog == nil {
		return
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		if r.Log != nil {
			r.Log.Warnf("marshal action log input for %s/%s: %v", sessionID, name, err)
		}
		inputJSON = json.RawMessage(`{}`)
	}

	var resultJSON json.RawMessage
	if result.OK {
		if data, err := json.Marshal(result.Data); err == nil {
			resultJSON = data
		}
	} else if result.StructuredError != nil {
		if data, err := json.Marshal(result.StructuredError); err == nil {
			resultJSON = data
		}
	}

	entry := store.ActionLogEntry{
		SessionID:      sessionID,
		Action:         name,
		Selector:       selectorStr,
		Input:          inputJSON,
		Result:         resultJSON,
		ScreenshotPath: result.ScreenshotPath,
		DurationMs:     result.DurationMs,
		Retries:        result.Retries,
		Failed:         !result.OK,
		CreatedAt:      time.Now(),
	}

	if err := r.ActionLog.Append(ctx, entry); err != nil && r.Log != nil {
		r.Log.Warnf("append action log for session %s action %s: %v", sessionID, name, err)
	}
}

// ToolError is a classified action failure that exhausted its retries,
// surfaced as a real Go error so a JSON-RPC caller receives an error object
// rather than a result (spec.md §7: "Tool executions that exhaust retries
// throw, carrying the last error message"). The structured taxonomy stays
// attached for callers that want more than the message string.
type ToolError struct {
	Code           string
	Message        string
	RecoveryHint   string
	Retries        int
	DurationMs     float64
	ScreenshotPath string
}

func (e *ToolError) Error() string {
	return e.Message
}

// resultToToolOutput turns an action.Result into the tool call's return
// value: on success, the `{content:[{type:"text",text}], details:{...}}`
// envelope spec.md §6 describes; on a classified failure, a non-nil
// *ToolError (see above) instead of a flattened result map.
func resultToToolOutput(result action.Result) (interface{}, error) {
	if result.OK {
		text, err := json.Marshal(result.Data)
		if err != nil {
			text = []byte(fmt.Sprintf("%v", result.Data))
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": string(text)},
			},
			"details": map[string]interface{}{
				"ok":         true,
				"retries":    result.Retries,
				"durationMs": result.DurationMs,
				"data":       result.Data,
			},
		}, nil
	}
	if result.StructuredError != nil {
		return nil, &ToolError{
			Code:           result.StructuredError.Code,
			Message:        result.StructuredError.Message,
			RecoveryHint:   result.StructuredError.RecoveryHint,
			Retries:        result.Retries,
			DurationMs:     result.DurationMs,
			ScreenshotPath: result.ScreenshotPath,
		}
	}
	return nil, result.Err
}
