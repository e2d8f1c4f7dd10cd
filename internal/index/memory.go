package index

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process Index used in development and tests. Vectors live
// in a per-namespace map guarded by a single RWMutex.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]Item
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]map[string]Item)}
}

// Upsert implements Index.
func (m *Memory) Upsert(ctx context.Context, namespace string, items []Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]Item, len(items))
		m.namespaces[namespace] = ns
	}
	for _, it := range items {
		// Copy the vector so callers can reuse their buffers.
		v := make([]float32, len(it.Vector))
		copy(v, it.Vector)
		it.Vector = v
		ns[it.ID] = it
	}
	return nil
}

// Query implements Index.
func (m *Memory) Query(ctx context.Context, namespace string, vector []float32, k int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ns := m.namespaces[namespace]
	matches := make([]Match, 0, len(ns))
	for _, it := range ns {
		matches = append(matches, Match{
			ID:         it.ID,
			Text:       it.Text,
			Metadata:   it.Metadata,
			Similarity: cosine(vector, it.Vector),
		})
	}

	// Stable ordering: similarity first, id as tie-break so results are
	// deterministic across runs.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// DeleteNamespace implements Index.
func (m *Memory) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, namespace)
	return nil
}

// cosine returns the cosine similarity of a and b, or 0 when either vector
// is zero-length or the dimensions disagree.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
