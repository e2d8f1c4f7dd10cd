package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// Embedder turns texts into vectors. It returns exactly one vector per input
// text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// GenkitEmbedder adapts a Genkit ai.Embedder to the Embedder interface.
type GenkitEmbedder struct {
	embedder ai.Embedder
}

// NewGenkitEmbedder wraps a Genkit embedder.
func NewGenkitEmbedder(embedder ai.Embedder) (*GenkitEmbedder, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	return &GenkitEmbedder{embedder: embedder}, nil
}

// Embed implements Embedder. All texts go to the model in a single request.
func (g *GenkitEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("generating embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Embedding
	}
	return vectors, nil
}
