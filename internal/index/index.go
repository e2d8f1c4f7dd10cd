// Package index provides namespaced vector storage and similarity search.
//
// Every operation is scoped to exactly one namespace (the conversation id):
// a query or deletion against namespace A can never observe or affect vectors
// stored under namespace B. This is the tenancy guarantee the whole retrieval
// subsystem rests on.
//
// Two implementations are provided: Postgres (pgvector, production) and
// Memory (process-local, development and tests). Both rank by cosine
// similarity and return an empty result, never an error, for an unknown or
// empty namespace.
package index

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the backing index is transiently unreachable.
// Callers may retry; see errors.Is.
var ErrUnavailable = errors.New("index unavailable")

// Item is a single vector with its source text and metadata, addressed by a
// globally unique id. Upserting an existing id replaces the stored item.
type Item struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Match is one query result, ranked by descending cosine similarity.
type Match struct {
	ID         string
	Text       string
	Metadata   map[string]string
	Similarity float32
}

// Index stores and retrieves vectors partitioned per namespace.
//
// Implementations must be safe for concurrent use; cross-request
// synchronization within a namespace is the implementation's concern, not the
// caller's.
type Index interface {
	// Upsert inserts or replaces items under the namespace. Items are
	// retrievable from the next successful Query onward.
	Upsert(ctx context.Context, namespace string, items []Item) error

	// Query returns up to k matches from the namespace, best first.
	// An empty or unknown namespace yields an empty slice and nil error.
	Query(ctx context.Context, namespace string, vector []float32, k int) ([]Match, error)

	// DeleteNamespace removes every vector under the namespace. Deleting an
	// empty or nonexistent namespace succeeds silently.
	DeleteNamespace(ctx context.Context, namespace string) error
}
