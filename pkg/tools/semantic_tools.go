package tools

import (
	"context"

	"github.com/entrhq/voyager/internal/interact"
	"github.com/entrhq/voyager/internal/semantic"
)

func semanticTools(rt *Runtime) []Tool {
	return []Tool{
		setFieldTool(rt),
		submitFormTool(rt),
		applyFilterTool(rt),
	}
}

func setFieldTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "set_field",
		description: "Set a form field identified by label/placeholder/name rather than a precise selector.",
		params: schema(map[string]interface{}{
			"sessionId":  map[string]interface{}{"type": "string"},
			"identifier": map[string]interface{}{"type": "string", "description": "label, placeholder, name, or aria attribute the field is known by"},
			"value":      map[string]interface{}{"type": "string"},
			"mode":       map[string]interface{}{"type": "string", "description": "fill | sequential | paste | nativeSetter"},
		}, "sessionId", "identifier", "value"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("set_field", args, "sessionId")
			if err != nil {
				return nil, err
			}
			identifier, err := requireString("set_field", args, "identifier")
			if err != nil {
				return nil, err
			}
			value, err := requireString("set_field", args, "value")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			typeOpts := interact.TypeOptions{Mode: interact.TypeMode(optString(args, "mode", string(interact.ModeFill)))}
			body := semantic.SetField(identifier, value, typeOpts, budgetFor(opts))

			result := rt.runAction(ctx, sess, "set_field", identifier, args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func submitFormTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "submit_form",
		description: "Submit the form in scope by clicking its submit control.",
		params: schema(map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"scope":     map[string]interface{}{"type": "string", "description": "optional CSS selector scoping the search for a submit control"},
		}, "sessionId"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("submit_form", args, "sessionId")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			scope := optString(args, "scope", "")
			body := semantic.SubmitForm(scope, budgetFor(opts))

			result := rt.runAction(ctx, sess, "submit_form", scope, args, opts, body)
			return resultToToolOutput(result)
		},
	}
}

func applyFilterTool(rt *Runtime) Tool {
	return &funcTool{
		name:        "apply_filter",
		description: "Set a filter/search field by identifier and optionally click an apply control.",
		params: schema(map[string]interface{}{
			"sessionId":     map[string]interface{}{"type": "string"},
			"identifier":    map[string]interface{}{"type": "string"},
			"value":         map[string]interface{}{"type": "string"},
			"applySelector": map[string]interface{}{"type": "string", "description": "optional CSS selector for the apply control"},
			"skipApply":     map[string]interface{}{"type": "boolean", "description": "set true when the field applies itself on change"},
			"scope":         map[string]interface{}{"type": "string", "description": "optional CSS selector scoping the apply-control search"},
		}, "sessionId", "identifier", "value"),
		handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			sessID, err := requireString("apply_filter", args, "sessionId")
			if err != nil {
				return nil, err
			}
			identifier, err := requireString("apply_filter", args, "identifier")
			if err != nil {
				return nil, err
			}
			value, err := requireString("apply_filter", args, "value")
			if err != nil {
				return nil, err
			}
			sess, err := rt.resolveSession(sessID)
			if err != nil {
				return nil, err
			}

			opts := actionOptionsFrom(args)
			applySelector := optString(args, "applySelector", "")
			skipApply := optBool(args, "skipApply", false)
			scope := optString(args, "scope", "")
			body := semantic.ApplyFilter(identifier, value, applySelector, skipApply, scope, budgetFor(opts))

			result := rt.runAction(ctx, sess, "apply_filter", identifier, args, opts, body)
			return resultToToolOutput(result)
		},
	}
}
