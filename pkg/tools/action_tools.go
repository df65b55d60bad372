package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/voyager/internal/action"
	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/extract"
	"github.com/entrhq/voyager/internal/interact"
	"github.com/entrhq/voyager/internal/selector"
	"github.com/entrhq/voyager/internal/wait"
)

// actionOptionsFrom reads the optional tier/timeoutMs/retries knobs common
// to every action tool, defaulting to action.DefaultOptions().
func actionOptionsFrom(args map[string]interface{}) action.Options {
	opts := action.DefaultOptions()
	if tier, ok := argString(args, "tier"); ok && tier != "" {
		opts.Tier = action.Tier(tier)
	}
	if ms := optNumber(args, "timeoutMs", 0); ms > 0 {
		opts.Timeout = time.Duration(ms) * time.Millisecond
	}
	if _, ok := args["retries"]; ok {
		opts.Retries = optInt(args, "retries", opts.Retries)
	}
	return opts
}

func budgetFor(opts action.Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	return action.TierDuration(opts.Tier)
}

func sessionAndSelector(tool string, args map[string]interface{}) (sessID string, sel selector.Selector, err error) {
	sessID, err = requireString(tool, args, "sessionId")
	if err != nil {
		return "", selector.Selector{}, err
	}
	sel, err = parseSelector(args["selector"])
	if err != nil {
		return "", selector.Selector{}, invalidArg(tool, "%v", err)
	}
	return sessID, sel, nil
}

func selectorArgProp() map[string]interface{} {
	return selectorSchema
}

func actionToolsFor(rt *Runtime) []Tool {
	return []Tool{
		navigateTool(rt),
		clickTool(rt),
		typeTool(rt),
		selectTool(rt),
		fillFormTool(rt),
		extractTextTool(rt),
		extractAllTool(rt),
		extractStructuredTool(rt),
		waitTool(rt),
		getContentTool(rt),
	}
}

func navigateTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "navigate",
		description: "Navigate the session's current page to a URL.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"url":       map[string]interface{}{"type": "string"},
			"waitUntil": map[string]interface{}{"type": "string", "description": "load | domcontentloaded | networkidle"},
		}, "sessionId", "url"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("navigate", args, "sessionId")
			if err != nil {
				return nil, err
			}
			url, err := requireString("navigate", args, "url")
			if err != nil {
				return nil, err
			}
			waitUntil := optString(args, "waitUntil", "domcontentloaded")

			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			budget := budgetFor(opts)
			body := func(ctx context.Context, page driver.Page, meta *action.TraceMeta) (interface{}, error) {
				if err := page.Goto(ctx, url, waitUntil, budget); err != nil {
					return nil, err
				}
				return map[string]interface{}{"url": page.URL()}, nil
			}

			result := rt.runAction(ctx, sess, "navigate", "", map[string]interface{}{"url": url, "waitUntil": waitUntil}, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func clickTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "click",
		description: "Click the element matched by a selector.",
		params: schema(map[string]interface{}{
			"sessionId":  map[string]interface{}{"type": "string"},
			"selector":   selectorArgProp(),
			"button":     map[string]interface{}{"type": "string", "description": "left | right | middle"},
			"clickCount": map[string]interface{}{"type": "number"},
		}, "sessionId", "selector"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, sel, err := sessionAndSelector("click", args)
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			clickOpts := driver.ClickOptions{
				Button:     optString(args, "button", "left"),
				ClickCount: optInt(args, "clickCount", 1),
			}
			body := interact.Click(sel, clickOpts, budgetFor(opts))

			result := rt.runAction(ctx, sess, "click", selectorString(sel), args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func typeTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "type",
		description: "Type a value into the element matched by a selector, using one of four input modes.",
		params: schema(map[string]interface{}{
			"sessionId":      map[string]interface{}{"type": "string"},
			"selector":       selectorArgProp(),
			"value":          map[string]interface{}{"type": "string"},
			"mode":           map[string]interface{}{"type": "string", "description": "fill | sequential | paste | nativeSetter"},
			"keystrokeDelay": map[string]interface{}{"type": "number", "description": "milliseconds between keystrokes in sequential mode"},
		}, "sessionId", "selector", "value"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, sel, err := sessionAndSelector("type", args)
			if err != nil {
				return nil, err
			}
			value, err := requireString("type", args, "value")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			typeOpts := interact.TypeOptions{
				Mode:           interact.TypeMode(optString(args, "mode", string(interact.ModeFill))),
				KeystrokeDelay: time.Duration(optNumber(args, "keystrokeDelay", 0)) * time.Millisecond,
			}
			body := interact.Type(sel, value, typeOpts, budgetFor(opts))

			result := rt.runAction(ctx, sess, "type", selectorString(sel), args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func selectTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "select",
		description: "Choose an option on a <select> element matched by a selector.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"selector":  selectorArgProp(),
			"value":     map[string]interface{}{"type": "string"},
		}, "sessionId", "selector", "value"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, sel, err := sessionAndSelector("select", args)
			if err != nil {
				return nil, err
			}
			value, err := requireString("select", args, "value")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			body := interact.Select(sel, value, budgetFor(opts))

			result := rt.runAction(ctx, sess, "select", selectorString(sel), args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

// parseFillEntries turns the fill_form "fields" argument — an array of
// {key, selector, value} — into interact.FillEntry values.
func parseFillEntries(raw interface{}) ([]interact.FillEntry, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("fields must be an array of {key, selector, value}")
	}
	entries := make([]interact.FillEntry, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("fields[%d] must be an object", i)
		}
		key, _ := m["key"].(string)
		value, _ := m["value"].(string)
		sel, err := parseSelector(m["selector"])
		if err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}
		entries = append(entries, interact.FillEntry{Key: key, Selector: sel, Value: value})
	}
	return entries, nil
}

func fillFormTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "fill_form",
		description: "Fill a batch of fields in one call, each verified by read-back; the whole batch fails if any field fails.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"fields": map[string]interface{}{
				"type":        "array",
				"description": "array of {key, selector, value}",
			},
		}, "sessionId", "fields"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("fill_form", args, "sessionId")
			if err != nil {
				return nil, err
			}
			entries, err := parseFillEntries(args["fields"])
			if err != nil {
				return nil, invalidArg("fill_form", "%v", err)
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			body := interact.FillMap(entries, budgetFor(opts))

			result := rt.runAction(ctx, sess, "fill_form", "", args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func extractTextTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "extract_text",
		description: "Read an element's text content.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"selector":  selectorArgProp(),
		}, "sessionId", "selector"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, sel, err := sessionAndSelector("extract_text", args)
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			body := extract.GetText(sel, budgetFor(opts))

			result := rt.runAction(ctx, sess, "extract_text", selectorString(sel), args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

// parseExtractFields turns the extract_all "fields" argument — an array of
// {key, source} — into extract.Field values.
func parseExtractFields(raw interface{}) ([]extract.Field, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("fields must be an array of {key, source}")
	}
	fields := make([]extract.Field, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("fields[%d] must be an object", i)
		}
		key, _ := m["key"].(string)
		source, _ := m["source"].(string)
		if key == "" || source == "" {
			return nil, fmt.Errorf("fields[%d] requires non-empty key and source", i)
		}
		fields = append(fields, extract.Field{Key: key, Source: source})
	}
	return fields, nil
}

func extractAllTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "extract_all",
		description: "Extract one field set per element matched by a selector.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"selector":  selectorArgProp(),
			"fields":    map[string]interface{}{"type": "array", "description": "array of {key, source}; source is textContent, innerHTML, or an attribute name"},
		}, "sessionId", "selector", "fields"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, sel, err := sessionAndSelector("extract_all", args)
			if err != nil {
				return nil, err
			}
			fields, err := parseExtractFields(args["fields"])
			if err != nil {
				return nil, invalidArg("extract_all", "%v", err)
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			body := extract.GetAll(sel, fields, budgetFor(opts))

			result := rt.runAction(ctx, sess, "extract_all", selectorString(sel), args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

// parseSchemaFields turns the extract_structured "fields" argument — a map
// from output key to either a source-attribute string or a {source, type}
// object — into extract.SchemaField values. Map iteration order is
// non-deterministic, so callers needing stable column order should prefer a
// single field or post-sort by key.
func parseSchemaFields(raw interface{}) ([]extract.SchemaField, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("fields must be a map from output key to source-attribute (or {source, type})")
	}
	fields := make([]extract.SchemaField, 0, len(m))
	for key, v := range m {
		switch val := v.(type) {
		case string:
			fields = append(fields, extract.SchemaField{Key: key, Source: val, Type: extract.TypeString})
		case map[string]interface{}:
			source, _ := val["source"].(string)
			kind, _ := val["type"].(string)
			if source == "" {
				return nil, fmt.Errorf("field %q requires a non-empty source", key)
			}
			if kind == "" {
				kind = string(extract.TypeString)
			}
			fields = append(fields, extract.SchemaField{Key: key, Source: source, Type: extract.FieldType(kind)})
		default:
			return nil, fmt.Errorf("field %q has unsupported shape %T", key, v)
		}
	}
	return fields, nil
}

func extractStructuredTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "extract_structured",
		description: "Extract typed rows matching a field schema, with per-row provenance for cross-checking against the live page.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"selector":  selectorArgProp(),
			"fields":    map[string]interface{}{"type": "object", "description": "output key -> source-attribute, or {source, type}"},
			"limit":     map[string]interface{}{"type": "number", "description": "caps the number of rows; 0 or omitted means unlimited"},
		}, "sessionId", "selector", "fields"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, sel, err := sessionAndSelector("extract_structured", args)
			if err != nil {
				return nil, err
			}
			fields, err := parseSchemaFields(args["fields"])
			if err != nil {
				return nil, invalidArg("extract_structured", "%v", err)
			}
			limit := optInt(args, "limit", 0)
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			body := extract.StructuredExtract(sel, fields, limit, budgetFor(opts))

			result := rt.runAction(ctx, sess, "extract_structured", selectorString(sel), args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func waitTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "wait",
		description: "Wait for a selector to reach a state, or for an in-page condition script to become true. Requires exactly one of selector or condition.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"selector":  selectorArgProp(),
			"condition": map[string]interface{}{"type": "string", "description": "JS predicate expression evaluated via waitForFunction"},
			"state":     map[string]interface{}{"type": "string", "description": "visible | hidden | attached | detached; defaults to visible"},
		}, "sessionId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("wait", args, "sessionId")
			if err != nil {
				return nil, err
			}

			_, hasSelector := args["selector"]
			condition, hasCondition := argString(args, "condition")
			if hasSelector == hasCondition {
				return nil, invalidArg("wait", "exactly one of selector or condition is required")
			}

			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			budget := budgetFor(opts)

			var body action.Body
			var selStr string
			if hasSelector {
				sel, perr := parseSelector(args["selector"])
				if perr != nil {
					return nil, invalidArg("wait", "%v", perr)
				}
				state := waitStateFrom(optString(args, "state", string(driver.Visible)))
				body = wait.ForSelector(sel, state, budget)
				selStr = selectorString(sel)
			} else {
				body = wait.ForCondition(condition, budget)
			}

			result := rt.runAction(ctx, sess, "wait", selStr, args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func waitStateFrom(s string) driver.WaitState {
	switch driver.WaitState(s) {
	case driver.Visible, driver.Hidden, driver.Attached, driver.Detached:
		return driver.WaitState(s)
	default:
		return driver.Visible
	}
}

func getContentTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "get_content",
		description: "Read the page's cleaned HTML content (scripts/styles/noscript/svg stripped), with title and meta description.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"maxLength": map[string]interface{}{"type": "number", "description": "defaults to 20000"},
		}, "sessionId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("get_content", args, "sessionId")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			body := extract.GetPageContent(optInt(args, "maxLength", 0))

			result := rt.runAction(ctx, sess, "get_content", "", args, opts, body)
			return resultToToolOutput(result)
		},
	}
}
