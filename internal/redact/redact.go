// Package redact walks a decoded JSON tree and blanks out sensitive values
// before it is persisted to the action log, per spec.md §6. A value is
// redacted either because its key matches the sensitive-keys set, or
// because it is a string nested under a typed-text key and the
// redact-typed-text policy is enabled.
package redact

import (
	"strings"

	"github.com/gobwas/glob"
)

const redactedPlaceholder = "[REDACTED]"

// defaultSensitiveKeys mirrors the common secret-bearing field names a
// tool call's input might carry.
var defaultSensitiveKeys = []string{
	"password", "passwd", "secret", "token", "apikey", "api_key",
	"authorization", "auth", "cookie", "cookies", "credential",
	"credentials", "ssn", "cardnumber", "card_number", "cvv", "pin",
}

// typedTextKeys are the keys whose string values are blanked when the
// redact-typed-text policy is on, since they carry literal user-typed
// content rather than structural data.
var typedTextKeys = map[string]bool{
	"text": true, "value": true, "fields": true, "script": true,
}

// Policy configures one redaction pass.
type Policy struct {
	// ExtraSensitiveKeys supplements defaultSensitiveKeys; entries may be
	// glob patterns (e.g. "*token*", "*_secret") or exact names, matched
	// case-insensitively either way.
	ExtraSensitiveKeys []string
	// RedactTypedText enables blanking string values under typedTextKeys.
	RedactTypedText bool
}

// Matcher compiles a Policy's sensitive-key set into glob matchers once, so
// Walk doesn't recompile patterns per call. Grounded on the teacher's
// PatternMatcher (pkg/executor/headless/constraint.go), which precompiles
// glob patterns the same way for allow/deny path matching.
type Matcher struct {
	globs           []glob.Glob
	redactTypedText bool
}

// Compile prepares a Policy for repeated use against many input trees.
func Compile(p Policy) (*Matcher, error) {
	all := append(append([]string(nil), defaultSensitiveKeys...), p.ExtraSensitiveKeys...)
	m := &Matcher{redactTypedText: p.RedactTypedText}
	for _, pattern := range all {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, err
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

func (m *Matcher) isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, g := range m.globs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

// Walk recurses v (the result of json.Unmarshal into interface{}) and
// returns a new tree with sensitive values replaced. Arrays and plain
// objects (map[string]interface{}) are recursed into; any other concrete
// type (numbers, bools, already-a-string-at-the-root, nil) passes through
// unchanged unless it is itself the sensitive string under a matched key.
func (m *Matcher) Walk(v interface{}) interface{} {
	return m.walkValue(v, "", false)
}

// walkValue recurses into v. parentKey is the key v was stored under in its
// parent object ("" at the root or inside an array); underTypedText is true
// once any ancestor key matched typedTextKeys, since spec.md §6 redacts
// "nested children thereof" too.
func (m *Matcher) walkValue(v interface{}, parentKey string, underTypedText bool) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if m.isSensitiveKey(k) {
				out[k] = redactedPlaceholder
				continue
			}
			childUnderTypedText := underTypedText || (m.redactTypedText && typedTextKeys[strings.ToLower(k)])
			out[k] = m.walkValue(child, k, childUnderTypedText)
		}
		return out

	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = m.walkValue(child, parentKey, underTypedText)
		}
		return out

	case string:
		if underTypedText {
			return redactedPlaceholder
		}
		return val

	default:
		return val
	}
}

// Redact is a convenience one-shot entry point for callers that don't reuse
// a Policy across many values.
func Redact(v interface{}, p Policy) (interface{}, error) {
	m, err := Compile(p)
	if err != nil {
		return nil, err
	}
	return m.Walk(v), nil
}
