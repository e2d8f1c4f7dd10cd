package tools

import (
	"context"
	"fmt"
)

// Kit is the set of tools available to one request. Tool order is
// preserved; it is the order declarations are presented to the model.
//
// Kit is immutable after construction and safe for concurrent use.
type Kit struct {
	ordered []*ExecutableTool
	byName  map[string]*ExecutableTool
}

// NewKit groups tools into a kit. Duplicate names are an error; two tools
// answering to one name would make dispatch ambiguous.
func NewKit(tools ...*ExecutableTool) (*Kit, error) {
	byName := make(map[string]*ExecutableTool, len(tools))
	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("nil tool in kit")
		}
		if _, dup := byName[t.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name())
		}
		byName[t.Name()] = t
	}
	return &Kit{ordered: tools, byName: byName}, nil
}

// Get returns the named tool, or nil when the kit has no such tool.
func (k *Kit) Get(name string) *ExecutableTool {
	return k.byName[name]
}

// Names returns the tool names in declaration order.
func (k *Kit) Names() []string {
	names := make([]string, len(k.ordered))
	for i, t := range k.ordered {
		names[i] = t.Name()
	}
	return names
}

// Tools returns the tools in declaration order.
func (k *Kit) Tools() []*ExecutableTool {
	out := make([]*ExecutableTool, len(k.ordered))
	copy(out, k.ordered)
	return out
}

// Execute dispatches one call by name. A model asking for a tool the kit
// does not hold gets a structured failure it can recover from, not a crash.
func (k *Kit) Execute(ctx context.Context, name string, input any) (any, error) {
	tool := k.byName[name]
	if tool == nil {
		return Failure(ErrCodeNotFound, fmt.Sprintf("unknown tool %q", name)), nil
	}
	return tool.Execute(ctx, input)
}
