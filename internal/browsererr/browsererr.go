// Package browsererr defines the closed error taxonomy shared by every layer
// of the runtime: the selector resolver, the action engine, sessions, and the
// pool all classify failures into one of these kinds so the engine can decide
// whether to retry and the tool surface can report a stable code.
package browsererr

import "fmt"

// Kind is one of the six error kinds the runtime recognizes.
type Kind string

const (
	TargetNotFound        Kind = "TARGET_NOT_FOUND"
	StaleElement          Kind = "STALE_ELEMENT"
	AssertionFailed       Kind = "ASSERTION_FAILED"
	NavigationInterrupted Kind = "NAVIGATION_INTERRUPTED"
	TimeoutExceeded       Kind = "TIMEOUT_EXCEEDED"
	SessionUnhealthy      Kind = "SESSION_UNHEALTHY"
)

// defaultHints carries the recovery hint shown alongside each kind's code.
var defaultHints = map[Kind]string{
	TargetNotFound:        "widen the selector fallback chain or increase the timeout",
	StaleElement:          "re-register the handle against a selector that still matches",
	AssertionFailed:       "inspect the page state; the pre/postcondition did not hold",
	NavigationInterrupted: "the page navigated mid-action; re-issue the action against the new page",
	TimeoutExceeded:       "increase the timeout tier or retry budget",
	SessionUnhealthy:      "acquire a new session; the pool will auto-recover this one",
}

// Error is the structured error every core component constructs for a
// classified failure. It satisfies the standard error interface and also
// exposes the fields the tool surface turns into a StructuredError.
type Error struct {
	Kind         Kind
	Code         string
	Message      string
	RecoveryHint string
	Cause        error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:         kind,
		Code:         string(kind),
		Message:      fmt.Sprintf(format, args...),
		RecoveryHint: defaultHints[kind],
	}
}

// New builds a typed error for the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return newf(kind, format, args...)
}

// Wrap builds a typed error that retains an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	e := newf(kind, format, args...)
	e.Cause = cause
	return e
}

func NewTargetNotFound(format string, args ...interface{}) *Error {
	return newf(TargetNotFound, format, args...)
}

func NewStaleElement(format string, args ...interface{}) *Error {
	return newf(StaleElement, format, args...)
}

func NewAssertionFailed(format string, args ...interface{}) *Error {
	return newf(AssertionFailed, format, args...)
}

func NewNavigationInterrupted(format string, args ...interface{}) *Error {
	return newf(NavigationInterrupted, format, args...)
}

func NewTimeoutExceeded(format string, args ...interface{}) *Error {
	return newf(TimeoutExceeded, format, args...)
}

func NewSessionUnhealthy(format string, args ...interface{}) *Error {
	return newf(SessionUnhealthy, format, args...)
}

// As reports whether err (or something it wraps) is a *Error, returning it.
func As(err error) (*Error, bool) {
	var be *Error
	if e, ok := err.(*Error); ok {
		return e, true
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return As(u.Unwrap())
	}
	return be, false
}

// StructuredError is the wire-shape exposed in ActionResult and tool output.
type StructuredError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recoveryHint"`
}

// Structured converts a typed *Error into the result-facing shape. Returns
// nil, false for errors outside the closed taxonomy (per spec.md §4.1, those
// surface only as a message string).
func Structured(err error) (*StructuredError, bool) {
	be, ok := As(err)
	if !ok {
		return nil, false
	}
	return &StructuredError{
		Code:         be.Code,
		Message:      be.Message,
		RecoveryHint: be.RecoveryHint,
	}, true
}

// Retryable reports whether the engine should retry on this error kind.
// NavigationInterrupted and SessionUnhealthy are the terminal kinds at the
// action-engine level.
func Retryable(err error) bool {
	be, ok := As(err)
	if !ok {
		return true // unknown errors are retried per spec.md §7
	}
	return be.Kind != NavigationInterrupted && be.Kind != SessionUnhealthy
}
