// Package rerank reorders an initial similarity-ranked candidate set with a
// finer-grained relevance pass.
//
// Vector similarity favors recall: the broad candidate set it produces can
// over-rank text that is lexically close but semantically unrelated to the
// query. A cross-encoder scoring the full (query, candidate) pair corrects
// that before candidates reach the reasoning model.
//
// Reranking is optional per deployment. When disabled, Passthrough keeps the
// incoming vector-similarity order; callers must not depend on reranking
// being active.
package rerank

import (
	"context"

	"github.com/corvid0/corvid/internal/index"
)

// Reranker reorders and truncates candidates by relevance to the query.
//
// Implementations must return at most topN candidates, every one of them
// drawn from the input set.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []index.Match, topN int) ([]index.Match, error)
}

// Passthrough is the disabled-reranking implementation: the first topN
// candidates are returned in their existing order.
type Passthrough struct{}

// NewPassthrough creates a Passthrough reranker.
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

// Rerank implements Reranker.
func (*Passthrough) Rerank(_ context.Context, _ string, candidates []index.Match, topN int) ([]index.Match, error) {
	if topN <= 0 || len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	out := make([]index.Match, len(candidates))
	copy(out, candidates)
	return out, nil
}
