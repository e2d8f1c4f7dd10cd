// Package tools defines the agent's callable tools and the kit that groups
// them per request.
//
// Tools carry metadata (name, description, long-running flag) plus a
// type-erased execution handler. The description is the model's only manual
// for a tool, so it states when to call it and what comes back.
//
// Capability injection: anything namespace- or conversation-scoped is bound
// into the tool at construction time. A tool never reaches into globals or
// inspects call-time state to find out which conversation it serves.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is the metadata surface of a callable tool.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description tells the model when to call the tool and what it returns.
	Description() string

	// IsLongRunning reports whether calls may take long enough to deserve a
	// generous timeout (network crawls, large fetches).
	IsLongRunning() bool
}

// ExecutableTool implements Tool and carries the execution handler. Input
// and output types are erased so heterogeneous tools can share a kit.
type ExecutableTool struct {
	name        string
	description string
	longRunning bool

	handler func(context.Context, any) (any, error)
}

// Name returns the tool's unique identifier.
func (t *ExecutableTool) Name() string { return t.name }

// Description returns the tool's functionality description.
func (t *ExecutableTool) Description() string { return t.description }

// IsLongRunning reports whether the tool performs long-running operations.
func (t *ExecutableTool) IsLongRunning() bool { return t.longRunning }

// Execute runs the tool. Input may be the handler's native input type or the
// map form a model produces; both are accepted.
func (t *ExecutableTool) Execute(ctx context.Context, input any) (any, error) {
	return t.handler(ctx, input)
}

// NewTool creates a tool from a typed handler. Type safety holds at compile
// time through the generic signature; erasure happens internally so tools
// with different input shapes can live in one kit.
//
// Model-produced inputs arrive as map[string]any and are converted through a
// JSON round trip against In's schema tags.
func NewTool[In, Out any](
	name string,
	description string,
	longRunning bool,
	handler func(context.Context, In) (Out, error),
) *ExecutableTool {
	var zeroIn In

	erased := func(ctx context.Context, input any) (any, error) {
		if typed, ok := input.(In); ok {
			return handler(ctx, typed)
		}

		raw, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("marshaling tool input: %w", err)
		}
		var typed In
		if err := json.Unmarshal(raw, &typed); err != nil {
			return nil, &Error{
				Code:    ErrCodeInvalidArguments,
				Message: fmt.Sprintf("expected %T, got %T: %v", zeroIn, input, err),
			}
		}
		return handler(ctx, typed)
	}

	return &ExecutableTool{
		name:        name,
		description: description,
		longRunning: longRunning,
		handler:     erased,
	}
}
