package config

import "fmt"

const (
	SectionIDRuntime   = "runtime"
	SectionIDApproval  = "approval"
	SectionIDRedaction = "redaction"
)

// RuntimeSection holds the pool/engine tuning knobs from SPEC_FULL.md §1.2.
type RuntimeSection struct {
	MaxContexts        int
	HealthIntervalMs   int
	HealthTimeoutMs    int
	MaxHealthFailures  int
	DefaultTimeoutTier string
	MaxRetries         int
}

// DefaultRuntimeSection matches the pool's own documented defaults.
func DefaultRuntimeSection() *RuntimeSection {
	return &RuntimeSection{
		MaxContexts:        10,
		HealthIntervalMs:   30_000,
		HealthTimeoutMs:    5_000,
		MaxHealthFailures:  3,
		DefaultTimeoutTier: "medium",
		MaxRetries:         3,
	}
}

func (r *RuntimeSection) ID() string { return SectionIDRuntime }

func (r *RuntimeSection) Data() map[string]interface{} {
	return map[string]interface{}{
		"maxContexts":        r.MaxContexts,
		"healthIntervalMs":   r.HealthIntervalMs,
		"healthTimeoutMs":    r.HealthTimeoutMs,
		"maxHealthFailures":  r.MaxHealthFailures,
		"defaultTimeoutTier": r.DefaultTimeoutTier,
		"maxRetries":         r.MaxRetries,
	}
}

func (r *RuntimeSection) SetData(data map[string]interface{}) error {
	if v, ok := data["maxContexts"]; ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("maxContexts: %w", err)
		}
		r.MaxContexts = n
	}
	if v, ok := data["healthIntervalMs"]; ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("healthIntervalMs: %w", err)
		}
		r.HealthIntervalMs = n
	}
	if v, ok := data["healthTimeoutMs"]; ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("healthTimeoutMs: %w", err)
		}
		r.HealthTimeoutMs = n
	}
	if v, ok := data["maxHealthFailures"]; ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("maxHealthFailures: %w", err)
		}
		r.MaxHealthFailures = n
	}
	if v, ok := data["defaultTimeoutTier"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("defaultTimeoutTier: expected string, got %T", v)
		}
		r.DefaultTimeoutTier = s
	}
	if v, ok := data["maxRetries"]; ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("maxRetries: %w", err)
		}
		r.MaxRetries = n
	}
	return nil
}

// ApprovalSection mirrors the teacher's AutoApprovalSection (per-tool bool
// map) plus a single autoApprove fallback consumed by the approval cascade.
type ApprovalSection struct {
	Tools       map[string]bool
	AutoApprove bool
}

func NewApprovalSection() *ApprovalSection {
	return &ApprovalSection{Tools: make(map[string]bool)}
}

func (a *ApprovalSection) ID() string { return SectionIDApproval }

func (a *ApprovalSection) Data() map[string]interface{} {
	tools := make(map[string]interface{}, len(a.Tools))
	for k, v := range a.Tools {
		tools[k] = v
	}
	return map[string]interface{}{
		"tools":       tools,
		"autoApprove": a.AutoApprove,
	}
}

func (a *ApprovalSection) SetData(data map[string]interface{}) error {
	if v, ok := data["tools"]; ok {
		tools, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("tools: expected object, got %T", v)
		}
		for name, enabled := range tools {
			b, ok := enabled.(bool)
			if !ok {
				return fmt.Errorf("tools.%s: expected bool, got %T", name, enabled)
			}
			a.Tools[name] = b
		}
	}
	if v, ok := data["autoApprove"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("autoApprove: expected bool, got %T", v)
		}
		a.AutoApprove = b
	}
	return nil
}

// IsToolAutoApproved returns false for any tool not explicitly enabled,
// matching the teacher's "default to requiring approval" behaviour.
func (a *ApprovalSection) IsToolAutoApproved(toolName string) bool {
	return a.Tools[toolName]
}

// RedactionSection holds the sensitive-keys additions and the
// redact-typed-text toggle from spec.md §6.
type RedactionSection struct {
	ExtraSensitiveKeys []string
	RedactTypedText    bool
}

func NewRedactionSection() *RedactionSection {
	return &RedactionSection{RedactTypedText: true}
}

func (r *RedactionSection) ID() string { return SectionIDRedaction }

func (r *RedactionSection) Data() map[string]interface{} {
	keys := make([]interface{}, len(r.ExtraSensitiveKeys))
	for i, k := range r.ExtraSensitiveKeys {
		keys[i] = k
	}
	return map[string]interface{}{
		"extraSensitiveKeys": keys,
		"redactTypedText":    r.RedactTypedText,
	}
}

func (r *RedactionSection) SetData(data map[string]interface{}) error {
	if v, ok := data["extraSensitiveKeys"]; ok {
		items, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("extraSensitiveKeys: expected array, got %T", v)
		}
		keys := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("extraSensitiveKeys: expected string entries, got %T", item)
			}
			keys = append(keys, s)
		}
		r.ExtraSensitiveKeys = keys
	}
	if v, ok := data["redactTypedText"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("redactTypedText: expected bool, got %T", v)
		}
		r.RedactTypedText = b
	}
	return nil
}

// asInt accepts the numeric shapes JSON decoding into interface{} (float64)
// or direct construction (int) might hand back.
func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
