package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/entrhq/voyager/internal/pool"
	"github.com/entrhq/voyager/internal/session"
	"github.com/entrhq/voyager/internal/store"
)

func sessionSummary(sess *session.Session) map[string]interface{} {
	return map[string]interface{}{
		"sessionId":  sess.ID,
		"profile":    sess.Profile,
		"url":        sess.CurrentURL(),
		"healthy":    sess.Healthy(),
		"createdAt":  sess.CreatedAt(),
		"lastUsedAt": sess.LastUsedAt(),
	}
}

func sessionTools(rt *Runtime) []Tool {
	return []Tool{
		openTool(rt),
		closeTool(rt),
		listTool(rt),
		restoreTool(rt),
		stateTool(rt),
	}
}

func openTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "open",
		description: "Acquire a new browser session, optionally restoring a named profile and navigating to a starting URL.",
		params: schema(map[string]interface{}{
			"url":     map[string]interface{}{"type": "string", "description": "optional starting URL"},
			"profile": map[string]interface{}{"type": "string", "description": "optional named profile to restore cookies/localStorage from"},
		}),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sess, err := rt.Pool.Acquire(ctx, pool.AcquireOptions{
				URL:      optString(args, "url", ""),
				Profile:  optString(args, "profile", ""),
				Headless: rt.DefaultHeadless,
			})
			if err != nil {
				return nil, err
			}

			if rt.Sessions != nil {
				if cerr := rt.Sessions.Create(ctx, store.Session{
					ID:        sess.ID,
					Profile:   sess.Profile,
					Status:    store.SessionActive,
					CreatedAt: sess.CreatedAt(),
					UpdatedAt: sess.CreatedAt(),
				}); cerr != nil && rt.Log != nil {
					rt.Log.Warnf("persist new session %s: %v", sess.ID, cerr)
				}
			}

			return sessionSummary(sess), nil
		},
	}
}

func closeTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "close",
		description: "Release a browser session, snapshotting it to its profile (if any) and closing its context.",
		params:      schema(map[string]interface{}{"sessionId": map[string]interface{}{"type": "string"}}, "sessionId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			id, err := requireString("close", args, "sessionId")
			if err != nil {
				return nil, err
			}

			if err := rt.Pool.Release(ctx, id); err != nil {
				return nil, err
			}
			rt.dropState(id)

			if rt.Sessions != nil {
				if uerr := rt.Sessions.UpdateStatus(ctx, id, store.SessionClosed); uerr != nil && rt.Log != nil {
					rt.Log.Warnf("mark session %s closed: %v", id, uerr)
				}
			}
			if rt.Tracer != nil {
				rt.Tracer.ClearSession(id)
			}

			return map[string]interface{}{"sessionId": id, "closed": true}, nil
		},
	}
}

func listTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "list",
		description: "List every currently pooled browser session.",
		params:      schema(map[string]interface{}{}),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessions := rt.Pool.List()
			out := make([]map[string]interface{}, 0, len(sessions))
			for _, sess := range sessions {
				out = append(out, sessionSummary(sess))
			}
			return out, nil
		},
	}
}

func restoreTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "restore",
		description: "Reactivate a previously closed/suspended session under its original ID, restoring its last known snapshot.",
		params:      schema(map[string]interface{}{"sessionId": map[string]interface{}{"type": "string"}}, "sessionId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			id, err := requireString("restore", args, "sessionId")
			if err != nil {
				return nil, err
			}

			if live, ok := rt.Pool.Get(id); ok {
				return sessionSummary(live), nil
			}

			if rt.Sessions == nil {
				return nil, invalidArg("restore", "no session store configured")
			}
			persisted, err := rt.Sessions.Get(ctx, id)
			if err != nil {
				return nil, err
			}

			sess, err := rt.Pool.Acquire(ctx, pool.AcquireOptions{SessionID: id, Profile: persisted.Profile, Headless: rt.DefaultHeadless})
			if err != nil {
				return nil, err
			}

			if len(persisted.Snapshot) > 0 {
				var snap session.Snapshot
				if uerr := json.Unmarshal(persisted.Snapshot, &snap); uerr == nil {
					if rerr := sess.Restore(ctx, &snap, 30*time.Second); rerr != nil && rt.Log != nil {
						rt.Log.Warnf("restore snapshot for session %s: %v", id, rerr)
					}
				}
			}

			if uerr := rt.Sessions.UpdateStatus(ctx, id, store.SessionActive); uerr != nil && rt.Log != nil {
				rt.Log.Warnf("mark session %s active: %v", id, uerr)
			}

			return sessionSummary(sess), nil
		},
	}
}

func stateTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "state",
		description: "Report a session's current URL, health, and lifecycle timestamps.",
		params:      schema(map[string]interface{}{"sessionId": map[string]interface{}{"type": "string"}}, "sessionId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			id, err := requireString("state", args, "sessionId")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(id)
			if err != nil {
				return nil, err
			}
			return sessionSummary(sess), nil
		},
	}
}
