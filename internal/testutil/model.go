package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockModel is a deterministic Genkit model for tests that exercise the real
// Genkit plumbing (as opposed to ScriptedReasoner, which bypasses it). It
// matches the last user message against registered patterns and answers with
// text or tool requests.
//
// Safe for concurrent use.
type MockModel struct {
	mu       sync.Mutex
	rules    []modelRule
	fallback string
	calls    []ModelCall
}

type modelRule struct {
	pattern  string // lowercase substring of the last user message
	response string
	tools    []*ai.ToolRequest
}

// ModelCall records one generate call.
type ModelCall struct {
	UserMessage string
	Response    string
}

// NewMockModel creates a mock model that answers fallback when no pattern
// matches.
func NewMockModel(fallback string) *MockModel {
	return &MockModel{fallback: fallback}
}

// Answer registers a pattern-response pair. Matching is a case-insensitive
// substring check against the last user message; first registered match wins.
func (m *MockModel) Answer(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, modelRule{pattern: strings.ToLower(pattern), response: response})
}

// RequestTools registers a pattern that makes the model request tools.
func (m *MockModel) RequestTools(pattern string, tools ...*ai.ToolRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, modelRule{pattern: strings.ToLower(pattern), tools: tools})
}

// Calls returns a copy of the recorded calls.
func (m *MockModel) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ModelCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Register defines the mock as a Genkit model named "mock/reasoner".
func (m *MockModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, "mock/reasoner", &ai.ModelOptions{
		Label: "Mock Reasoner",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
		},
	}, m.generate)
}

func (m *MockModel) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	var userText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			userText = req.Messages[i].Text()
			break
		}
	}

	m.mu.Lock()
	var matched *modelRule
	lower := strings.ToLower(userText)
	for i := range m.rules {
		if strings.Contains(lower, m.rules[i].pattern) {
			matched = &m.rules[i]
			break
		}
	}

	responseText := m.fallback
	if matched != nil && matched.response != "" {
		responseText = matched.response
	}
	m.calls = append(m.calls, ModelCall{UserMessage: userText, Response: responseText})
	m.mu.Unlock()

	if cb != nil {
		_ = cb(ctx, &ai.ModelResponseChunk{
			Content: []*ai.Part{ai.NewTextPart(responseText)},
		})
	}

	var parts []*ai.Part
	if matched != nil {
		for _, tr := range matched.tools {
			parts = append(parts, &ai.Part{Kind: ai.PartToolRequest, ToolRequest: tr})
		}
	}
	parts = append(parts, ai.NewTextPart(responseText))

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{Role: ai.RoleModel, Content: parts},
	}, nil
}

// RegisterEmbedder defines the bag-of-words Embedder as a Genkit embedder
// named "mock/embedder", for tests that go through the ai.Embedder surface.
func RegisterEmbedder(g *genkit.Genkit, e *Embedder) ai.Embedder {
	return genkit.DefineEmbedder(g, "mock/embedder", &ai.EmbedderOptions{
		Label:      "Mock Embedder",
		Dimensions: e.Dim,
	}, func(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
		texts := make([]string, len(req.Input))
		for i, doc := range req.Input {
			var sb strings.Builder
			for _, p := range doc.Content {
				if p.Kind == ai.PartText {
					sb.WriteString(p.Text)
				}
			}
			texts[i] = sb.String()
		}
		vecs, err := e.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		embeddings := make([]*ai.Embedding, len(vecs))
		for i, v := range vecs {
			embeddings[i] = &ai.Embedding{Embedding: v}
		}
		return &ai.EmbedResponse{Embeddings: embeddings}, nil
	})
}
