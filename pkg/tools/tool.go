package tools

import (
	"context"
	"fmt"
)

// Tool is one JSON-RPC-callable operation: its name, a human description,
// a JSON Schema for its arguments, and the handler itself. This mirrors the
// teacher's Tool interface shape (Name/Description/Schema/Execute) with the
// XML argument convention replaced by a plain JSON args map, per the
// JSON-RPC-over-stdio surface the runtime exposes.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]interface{}
	Call(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// funcTool is the common Tool implementation: every concrete tool below is
// built by wrapping a plain handler function rather than defining a new
// named type per tool.
type funcTool struct {
	name        string
	description string
	params      map[string]interface{}
	handler     func(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

func (t *funcTool) Name() string        { return t.name }
func (t *funcTool) Description() string { return t.description }
func (t *funcTool) Schema() map[string]interface{} {
	return t.params
}
func (t *funcTool) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	return t.handler(ctx, args)
}

// Registry collects every tool the runtime exposes, keyed by name, in
// registration order for listing.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

func (r *Registry) register(t Tool) {
	if _, exists := r.byName[t.Name()]; exists {
		panic(fmt.Sprintf("tools: duplicate tool name %q", t.Name()))
	}
	r.byName[t.Name()] = t
	r.order = append(r.order, t.Name())
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// List returns every tool in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Dispatch looks up name and calls it with args, the single entry point a
// JSON-RPC-over-stdio loop drives every incoming request through.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t.Call(ctx, args)
}

// BuildRegistry assembles every tool the runtime exposes: session
// lifecycle, action primitives, page-level operations, handle management,
// semantic field helpers, and approval.
func BuildRegistry(rt *Runtime) *Registry {
	r := NewRegistry()

	for _, t := range sessionTools(rt) {
		r.register(t)
	}
	for _, t := range actionToolsFor(rt) {
		r.register(t)
	}
	for _, t := range pageTools(rt) {
		r.register(t)
	}
	for _, t := range handleTools(rt) {
		r.register(t)
	}
	for _, t := range semanticTools(rt) {
		r.register(t)
	}
	for _, t := range approvalTools(rt) {
		r.register(t)
	}

	return r
}
