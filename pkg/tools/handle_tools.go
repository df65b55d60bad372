package tools

import (
	"context"
	"time"

	"github.com/entrhq/voyager/internal/driver"
)

// handleTimeout bounds the direct (non-action-engine) registry calls below;
// these aren't retried like action bodies since a stale handle is a caller
// error, not a transient page condition.
const handleTimeout = 15 * time.Second

func handleTools(rt *Runtime) []Tool {
	return []Tool{
		registerElementTool(rt),
		resolveElementTool(rt),
		releaseElementTool(rt),
	}
}

func registerElementTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "register_element",
		description: "Resolve a selector once and register it as a stable handle for later resolve_element calls.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"selector":  selectorArgProp(),
		}, "sessionId", "selector"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, sel, err := sessionAndSelector("register_element", args)
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			ctx, cancel := context.WithTimeout(ctx, handleTimeout)
			defer cancel()

			id, err := rt.handlesFor(sessID).Register(ctx, sess.Page(), sel, handleTimeout)
			if err != nil {
				return nil, err
			}
			sess.Touch()
			return map[string]interface{}{"handleId": id}, nil
		},
	}
}

func resolveElementTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "resolve_element",
		description: "Re-resolve a previously registered handle, reporting whether its winning strategy has remapped.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"handleId":  map[string]interface{}{"type": "string"},
			"state":     map[string]interface{}{"type": "string", "description": "visible | hidden | attached | detached; defaults to visible"},
		}, "sessionId", "handleId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("resolve_element", args, "sessionId")
			if err != nil {
				return nil, err
			}
			handleID, err := requireString("resolve_element", args, "handleId")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			state := waitStateFrom(optString(args, "state", string(driver.Visible)))

			ctx, cancel := context.WithTimeout(ctx, handleTimeout)
			defer cancel()

			res, err := rt.handlesFor(sessID).Resolve(ctx, sess.Page(), handleID, state, handleTimeout)
			if err != nil {
				return nil, err
			}
			sess.Touch()
			return map[string]interface{}{
				"handleId":   handleID,
				"strategy":   res.Strategy.String(),
				"remapped":   res.Remapped,
				"remapCount": res.Record.RemapCount,
			}, nil
		},
	}
}

func releaseElementTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "release_element",
		description: "Release a previously registered handle.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"handleId":  map[string]interface{}{"type": "string"},
		}, "sessionId", "handleId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("release_element", args, "sessionId")
			if err != nil {
				return nil, err
			}
			handleID, err := requireString("release_element", args, "handleId")
			if err != nil {
				return nil, err
			}
			rt.handlesFor(sessID).Release(handleID)
			return map[string]interface{}{"handleId": handleID, "released": true}, nil
		},
	}
}
