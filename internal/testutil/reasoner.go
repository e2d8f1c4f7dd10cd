package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/firebase/genkit/go/ai"
)

// ScriptedReasoner plays back a fixed sequence of model responses. When the
// script runs out, the last step repeats, which makes "model that always
// wants tools" scenarios trivial to express.
//
// Thread-safe for concurrent use.
type ScriptedReasoner struct {
	mu    sync.Mutex
	steps []scriptStep
	next  int
	calls [][]*ai.Message
}

type scriptStep struct {
	resp *ai.ModelResponse
	err  error
}

// NewScriptedReasoner creates an empty script. A Generate call on an empty
// script is a test bug and returns an error saying so.
func NewScriptedReasoner() *ScriptedReasoner {
	return &ScriptedReasoner{}
}

// Text queues a plain text answer.
func (r *ScriptedReasoner) Text(text string) *ScriptedReasoner {
	return r.push(scriptStep{resp: TextResponse(text)})
}

// ToolCalls queues a response requesting the given tool calls.
func (r *ScriptedReasoner) ToolCalls(requests ...*ai.ToolRequest) *ScriptedReasoner {
	return r.push(scriptStep{resp: ToolCallResponse(requests...)})
}

// Fail queues a generation failure.
func (r *ScriptedReasoner) Fail(err error) *ScriptedReasoner {
	return r.push(scriptStep{err: err})
}

func (r *ScriptedReasoner) push(s scriptStep) *ScriptedReasoner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, s)
	return r
}

// Generate implements the agent's Reasoner interface.
func (r *ScriptedReasoner) Generate(_ context.Context, msgs []*ai.Message) (*ai.ModelResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]*ai.Message, len(msgs))
	copy(copied, msgs)
	r.calls = append(r.calls, copied)

	if len(r.steps) == 0 {
		return nil, errors.New("scripted reasoner has no steps")
	}
	step := r.steps[r.next]
	if r.next < len(r.steps)-1 {
		r.next++
	}
	return step.resp, step.err
}

// Calls returns the message history of every Generate call.
func (r *ScriptedReasoner) Calls() [][]*ai.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]*ai.Message, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns how many times Generate ran.
func (r *ScriptedReasoner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// TextResponse builds a model response holding only text.
func TextResponse(text string) *ai.ModelResponse {
	return &ai.ModelResponse{
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: []*ai.Part{ai.NewTextPart(text)},
		},
	}
}

// ToolCallResponse builds a model response requesting tool calls.
func ToolCallResponse(requests ...*ai.ToolRequest) *ai.ModelResponse {
	parts := make([]*ai.Part, len(requests))
	for i, req := range requests {
		parts[i] = ai.NewToolRequestPart(req)
	}
	return &ai.ModelResponse{
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: parts,
		},
	}
}
