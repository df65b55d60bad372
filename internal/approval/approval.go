// Package approval implements the approval cascade from spec.md §6: an
// injected provider is consulted first, then the configured autoApprove
// flag, then the BROWSER_AUTO_APPROVE environment variable, falling through
// each step on a provider error the same way the teacher's approval manager
// falls through to rejection when a pending request cannot be resolved.
package approval

import (
	"context"
	"os"
)

// Provider decides whether a tool call proceeds without a human in the
// loop. A Provider that cannot reach a decision returns an error, which
// moves the cascade on to the next step rather than failing the call
// outright — Go's static typing means there is no separate "returned a
// non-boolean" case to model; an error is the only way a Provider opts out.
type Provider func(ctx context.Context, toolName string, args map[string]interface{}) (bool, error)

// Resolver runs the cascade: provider, then autoApprove, then the
// environment variable.
type Resolver struct {
	Provider    Provider
	AutoApprove bool
}

// EnvAutoApprove is the environment variable name spec.md §6 names as the
// last fallback in the cascade.
const EnvAutoApprove = "BROWSER_AUTO_APPROVE"

// Resolve runs the approval cascade for one tool call and reports whether it
// is approved.
func (r Resolver) Resolve(ctx context.Context, toolName string, args map[string]interface{}) bool {
	if r.Provider != nil {
		if approved, err := r.Provider(ctx, toolName, args); err == nil {
			return approved
		}
	}

	if r.AutoApprove {
		return true
	}

	return os.Getenv(EnvAutoApprove) == "1"
}
