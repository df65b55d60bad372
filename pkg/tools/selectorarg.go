package tools

import (
	"fmt"
	"strings"

	"github.com/entrhq/voyager/internal/selector"
)

// parseSelector turns a tool argument into a selector.Selector. raw may be a
// plain CSS string, a single typed strategy object, or an ordered array of
// either, per the selector argument shape: CSS string | typed strategy
// variant | ordered fallback chain.
//
// Typed strategy objects are tagged by a "type" field: css, aria, text,
// label, testid, xpath.
func parseSelector(raw interface{}) (selector.Selector, error) {
	switch v := raw.(type) {
	case nil:
		return selector.Selector{}, fmt.Errorf("selector argument is required")
	case string:
		if v == "" {
			return selector.Selector{}, fmt.Errorf("selector argument is required")
		}
		return selector.FromCSS(v), nil
	case map[string]interface{}:
		strat, err := parseStrategy(v)
		if err != nil {
			return selector.Selector{}, err
		}
		return selector.FromStrategy(strat), nil
	case []interface{}:
		if len(v) == 0 {
			return selector.Selector{}, fmt.Errorf("selector chain must not be empty")
		}
		strategies := make([]selector.Strategy, 0, len(v))
		for i, item := range v {
			strat, err := parseStrategyItem(item)
			if err != nil {
				return selector.Selector{}, fmt.Errorf("selector chain[%d]: %w", i, err)
			}
			strategies = append(strategies, strat)
		}
		return selector.NewChain(strategies...), nil
	default:
		return selector.Selector{}, fmt.Errorf("unsupported selector shape %T", raw)
	}
}

func parseStrategyItem(item interface{}) (selector.Strategy, error) {
	switch v := item.(type) {
	case string:
		return selector.CSS(v), nil
	case map[string]interface{}:
		return parseStrategy(v)
	default:
		return selector.Strategy{}, fmt.Errorf("unsupported chain entry %T", item)
	}
}

func parseStrategy(m map[string]interface{}) (selector.Strategy, error) {
	kind, _ := m["type"].(string)
	switch kind {
	case "css", "":
		sel, _ := m["selector"].(string)
		if sel == "" {
			return selector.Strategy{}, fmt.Errorf("css strategy requires a non-empty \"selector\"")
		}
		return selector.CSS(sel), nil

	case "aria":
		role, _ := m["role"].(string)
		name, _ := m["name"].(string)
		if role == "" {
			return selector.Strategy{}, fmt.Errorf("aria strategy requires a non-empty \"role\"")
		}
		return selector.ARIA(role, name), nil

	case "text":
		text, _ := m["text"].(string)
		exact, _ := m["exact"].(bool)
		if text == "" {
			return selector.Strategy{}, fmt.Errorf("text strategy requires a non-empty \"text\"")
		}
		return selector.Text(text, exact), nil

	case "label":
		text, _ := m["text"].(string)
		if text == "" {
			return selector.Strategy{}, fmt.Errorf("label strategy requires a non-empty \"text\"")
		}
		return selector.Label(text), nil

	case "testid":
		id, _ := m["id"].(string)
		if id == "" {
			return selector.Strategy{}, fmt.Errorf("testid strategy requires a non-empty \"id\"")
		}
		return selector.TestID(id), nil

	case "xpath":
		expr, _ := m["expression"].(string)
		if expr == "" {
			return selector.Strategy{}, fmt.Errorf("xpath strategy requires a non-empty \"expression\"")
		}
		return selector.XPath(expr), nil

	default:
		return selector.Strategy{}, fmt.Errorf("unknown selector strategy type %q", kind)
	}
}

// selectorString renders a Selector for action-log/trace purposes, joining
// its chain by " | " in fallback order.
func selectorString(sel selector.Selector) string {
	strategies := sel.Strategies()
	parts := make([]string, 0, len(strategies))
	for _, s := range strategies {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, " | ")
}

// selectorSchema is the JSON Schema fragment every selector-bearing tool
// parameter shares.
var selectorSchema = map[string]interface{}{
	"description": "CSS string, a typed strategy object ({type, ...}), or an ordered array of either as a fallback chain",
}
