// Package tools exposes the runtime's capabilities as a flat set of
// JSON-in/JSON-out operations for a JSON-RPC-over-stdio agent host, the
// same "one small type per capability, collected by a registry" shape as
// entrhq-forge's pkg/tools/browser.ToolRegistry, adapted from XML-tagged
// argument structs to plain map[string]interface{} arguments.
package tools

import "fmt"

// argError reports a malformed or missing tool argument. Kept distinct from
// the browsererr taxonomy, since it describes a caller mistake rather than a
// runtime failure the action engine can classify or retry.
type argError struct {
	tool string
	msg  string
}

func (e *argError) Error() string {
	return fmt.Sprintf("%s: %s", e.tool, e.msg)
}

func invalidArg(tool, format string, a ...interface{}) error {
	return &argError{tool: tool, msg: fmt.Sprintf(format, a...)}
}

func argString(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func requireString(tool string, args map[string]interface{}, key string) (string, error) {
	s, ok := argString(args, key)
	if !ok || s == "" {
		return "", invalidArg(tool, "missing required string argument %q", key)
	}
	return s, nil
}

func optString(args map[string]interface{}, key, fallback string) string {
	s, ok := argString(args, key)
	if !ok {
		return fallback
	}
	return s
}

func optBool(args map[string]interface{}, key string, fallback bool) bool {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

// optNumber reads a JSON number argument. JSON-decoded numbers arrive as
// float64 regardless of whether the caller wrote an integer literal.
func optNumber(args map[string]interface{}, key string, fallback float64) float64 {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	f, ok := v.(float64)
	if !ok {
		return fallback
	}
	return f
}

func optInt(args map[string]interface{}, key string, fallback int) int {
	return int(optNumber(args, key, float64(fallback)))
}

func argMap(args map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := args[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

func argSlice(args map[string]interface{}, key string) ([]interface{}, bool) {
	v, ok := args[key]
	if !ok {
		return nil, false
	}
	s, ok := v.([]interface{})
	return s, ok
}

// schema builds a minimal JSON Schema object, mirroring the teacher's
// BaseToolSchema helper (pkg/agent/tools.BaseToolSchema).
func schema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
