package agent

import (
	"context"
	"errors"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Reasoner produces the model's next step given the conversation so far.
// A response carries either final text or tool requests for the loop to
// dispatch.
type Reasoner interface {
	Generate(ctx context.Context, msgs []*ai.Message) (*ai.ModelResponse, error)
}

// ReasonerFunc adapts a function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, msgs []*ai.Message) (*ai.ModelResponse, error)

// Generate implements Reasoner.
func (f ReasonerFunc) Generate(ctx context.Context, msgs []*ai.Message) (*ai.ModelResponse, error) {
	return f(ctx, msgs)
}

// GenkitReasoner drives a Genkit model. Tool requests are returned to the
// caller rather than executed by Genkit, so the loop stays in charge of
// dispatch.
type GenkitReasoner struct {
	g         *genkit.Genkit
	modelName string
	toolRefs  []ai.ToolRef
}

// NewGenkitReasoner creates a reasoner over a Genkit instance. The tool refs
// are the process-wide declarations; pass nil for a tool-less reasoner.
func NewGenkitReasoner(g *genkit.Genkit, modelName string, toolRefs []ai.ToolRef) (*GenkitReasoner, error) {
	if g == nil {
		return nil, errors.New("genkit instance is required")
	}
	return &GenkitReasoner{g: g, modelName: modelName, toolRefs: toolRefs}, nil
}

// Generate implements Reasoner.
func (r *GenkitReasoner) Generate(ctx context.Context, msgs []*ai.Message) (*ai.ModelResponse, error) {
	opts := []ai.GenerateOption{
		ai.WithMessages(msgs...),
		ai.WithReturnToolRequests(true),
	}
	if r.modelName != "" {
		opts = append(opts, ai.WithModelName(r.modelName))
	}
	if len(r.toolRefs) > 0 {
		opts = append(opts, ai.WithTools(r.toolRefs...))
	}
	return genkit.Generate(ctx, r.g, opts...)
}
