package tools

import (
	"context"
	"fmt"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/driver"
)

func pageTools(rt *Runtime) []Tool {
	return []Tool{
		screenshotTool(rt),
		evaluateTool(rt),
		scrollTool(rt),
		sessionTraceTool(rt),
	}
}

func screenshotTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "screenshot",
		description: "Capture a screenshot of the session's current page and save it as an artifact.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"label":     map[string]interface{}{"type": "string", "description": "defaults to \"manual\""},
			"fullPage":  map[string]interface{}{"type": "boolean"},
		}, "sessionId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("screenshot", args, "sessionId")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}
			label := optString(args, "label", "manual")
			fullPage := optBool(args, "fullPage", false)

			png, err := sess.Page().Screenshot(ctx, fullPage)
			if err != nil {
				return nil, err
			}
			path, err := rt.Artifacts.WriteScreenshot(sessID, "screenshot", label, png)
			if err != nil {
				return nil, err
			}
			sess.Touch()
			return map[string]interface{}{"path": path}, nil
		},
	}
}

func evaluateTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "evaluate",
		description: "Evaluate a JavaScript expression against the session's current page and return its value.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"script":    map[string]interface{}{"type": "string"},
		}, "sessionId", "script"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("evaluate", args, "sessionId")
			if err != nil {
				return nil, err
			}
			script, err := requireString("evaluate", args, "script")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			body := func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
				return page.Evaluate(ctx, script, nil)
			}

			result := rt.runAction(ctx, sess, "evaluate", "", args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func scrollTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "scroll",
		description: "Scroll the session's current page by a direction and pixel amount.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"direction": map[string]interface{}{"type": "string", "description": "up | down | left | right"},
			"amount":    map[string]interface{}{"type": "number", "description": "pixels; defaults to 400"},
		}, "sessionId", "direction"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("scroll", args, "sessionId")
			if err != nil {
				return nil, err
			}
			direction, err := requireString("scroll", args, "direction")
			if err != nil {
				return nil, err
			}
			amount := optInt(args, "amount", 400)

			var dx, dy int
			switch direction {
			case "up":
				dy = -amount
			case "down":
				dy = amount
			case "left":
				dx = -amount
			case "right":
				dx = amount
			default:
				return nil, invalidArg("scroll", "unknown direction %q", direction)
			}

			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			script := fmt.Sprintf("window.scrollBy(%d, %d)", dx, dy)
			body := func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
				if _, err := page.Evaluate(ctx, script, nil); err != nil {
					return nil, err
				}
				meta.EventsDispatched++
				return map[string]interface{}{"scrolled": true}, nil
			}

			result := rt.runAction(ctx, sess, "scroll", "", args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func sessionTraceTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "session_trace",
		description: "Report a session's recorded action trace and aggregate stats.",
		params:      schema(map[string]interface{}{"sessionId": map[string]interface{}{"type": "string"}}, "sessionId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("session_trace", args, "sessionId")
			if err != nil {
				return nil, err
			}
			if rt.Tracer == nil {
				return map[string]interface{}{"sessionId": sessID, "entries": []interface{}{}}, nil
			}

			entries := rt.Tracer.SessionTrace(sessID).Entries()
			out := make([]map[string]interface{}, 0, len(entries))
			for _, e := range entries {
				out = append(out, map[string]interface{}{
					"action":            e.Action,
					"timestamp":         e.Timestamp,
					"durationMs":        e.DurationMs,
					"ok":                e.OK,
					"error":             e.Error,
					"retries":           e.Retries,
					"selectorResolved":  e.SelectorResolved,
					"eventsDispatched":  e.EventsDispatched,
					"waitsPerformed":    e.WaitsPerformed,
					"assertionsChecked": e.AssertionsChecked,
				})
			}

			return map[string]interface{}{
				"sessionId": sessID,
				"entries":   out,
				"stats":     rt.Tracer.Stats(),
			}, nil
		},
	}
}
