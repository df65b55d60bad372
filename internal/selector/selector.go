// Package selector implements the layered selector strategy described in
// spec.md §3-4.2: a Selector is a CSS string, a single typed strategy, or an
// ordered fallback chain, and the Resolver turns one into a live element
// reference plus a Resolution record naming which strategy won.
package selector

import "fmt"

// StrategyKind tags which variant a Strategy holds.
type StrategyKind string

const (
	KindCSS   StrategyKind = "css"
	KindARIA  StrategyKind = "aria"
	KindText  StrategyKind = "text"
	KindLabel StrategyKind = "label"
	KindTestID StrategyKind = "testid"
	KindXPath StrategyKind = "xpath"
)

// Strategy is an immutable tagged value describing how to locate an element.
// Exactly one kind's fields are meaningful for a given Strategy value.
type Strategy struct {
	Kind StrategyKind

	// css / xpath
	Selector string

	// aria
	Role string
	Name string

	// text / label / testid also reuse Text/TestID
	Text  string
	Exact bool

	TestID string
}

func CSS(sel string) Strategy           { return Strategy{Kind: KindCSS, Selector: sel} }
func XPath(expr string) Strategy        { return Strategy{Kind: KindXPath, Selector: expr} }
func ARIA(role, name string) Strategy   { return Strategy{Kind: KindARIA, Role: role, Name: name} }
func Text(text string, exact bool) Strategy {
	return Strategy{Kind: KindText, Text: text, Exact: exact}
}
func Label(text string) Strategy  { return Strategy{Kind: KindLabel, Text: text} }
func TestID(id string) Strategy   { return Strategy{Kind: KindTestID, TestID: id} }

// Equal reports deep-equality between two strategies, used by the handle
// registry to detect when the winning strategy has changed.
func (s Strategy) Equal(other Strategy) bool {
	return s == other
}

func (s Strategy) String() string {
	switch s.Kind {
	case KindCSS:
		return fmt.Sprintf("css(%s)", s.Selector)
	case KindXPath:
		return fmt.Sprintf("xpath(%s)", s.Selector)
	case KindARIA:
		return fmt.Sprintf("aria(role=%s,name=%s)", s.Role, s.Name)
	case KindText:
		return fmt.Sprintf("text(%q,exact=%v)", s.Text, s.Exact)
	case KindLabel:
		return fmt.Sprintf("label(%q)", s.Text)
	case KindTestID:
		return fmt.Sprintf("testid(%s)", s.TestID)
	default:
		return "unknown"
	}
}

// Selector is either a plain CSS string, a single strategy, or a non-empty
// ordered fallback chain. Construct with FromCSS, FromStrategy, or NewChain.
type Selector struct {
	chain []Strategy
}

// FromCSS wraps a plain CSS string into a single-css-strategy Selector.
func FromCSS(css string) Selector {
	return Selector{chain: []Strategy{CSS(css)}}
}

// FromStrategy wraps a single strategy.
func FromStrategy(s Strategy) Selector {
	return Selector{chain: []Strategy{s}}
}

// NewChain builds an ordered fallback chain. An empty chain is a valid value
// here; the resolver is the one that rejects it with TargetNotFound, per
// spec.md §4.2 ("Empty chain → fails with TargetNotFound").
func NewChain(strategies ...Strategy) Selector {
	return Selector{chain: append([]Strategy(nil), strategies...)}
}

// Strategies returns the ordered chain backing this selector.
func (s Selector) Strategies() []Strategy { return s.chain }

// Len returns the chain length.
func (s Selector) Len() int { return len(s.chain) }

// Head returns the first strategy, used for the hidden/detached probe path.
func (s Selector) Head() (Strategy, bool) {
	if len(s.chain) == 0 {
		return Strategy{}, false
	}
	return s.chain[0], true
}

// Rotate moves the head strategy to the tail, returning a new Selector. This
// backs the action engine's "rotate the chain on TargetNotFound" behaviour
// (spec.md §4.4 step 5).
func (s Selector) Rotate() Selector {
	if len(s.chain) < 2 {
		return s
	}
	rotated := make([]Strategy, 0, len(s.chain))
	rotated = append(rotated, s.chain[1:]...)
	rotated = append(rotated, s.chain[0])
	return Selector{chain: rotated}
}

// WithHead returns a new Selector whose chain places `head` first, followed
// by the remaining original strategies minus `head` itself (if present).
// The handle registry builds the same ordering with its own prioritize
// helper.
func (s Selector) WithHead(head Strategy) Selector {
	out := make([]Strategy, 0, len(s.chain)+1)
	out = append(out, head)
	for _, st := range s.chain {
		if st != head {
			out = append(out, st)
		}
	}
	return Selector{chain: out}
}
