// Package knowledge manages the retrieval pipeline: documents are chunked,
// embedded, and written to a namespaced vector index; queries run the
// wide-then-narrow pass (broad similarity search, then reranking) and come
// back as a formatted context block ready for a model prompt.
//
// Every operation is scoped to a namespace. A namespace is one conversation's
// private knowledge base; nothing here can read or write across namespaces.
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/corvid0/corvid/internal/chunk"
	"github.com/corvid0/corvid/internal/index"
	"github.com/corvid0/corvid/internal/log"
	"github.com/corvid0/corvid/internal/rerank"
)

// Sentinel errors surfaced to callers.
var (
	ErrEmptyDocument     = errors.New("document has no extractable text")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

const (
	// DefaultBaseK is how many candidates the broad similarity pass fetches.
	DefaultBaseK = 20
	// DefaultTopN is how many candidates survive reranking.
	DefaultTopN = 5

	// NoResults is returned verbatim when a namespace has nothing relevant.
	// The reasoning model is prompted to treat it as an explicit miss, so it
	// must stay stable.
	NoResults = "No relevant information found."
)

// supportedExtensions lists the plain-text formats Ingest accepts.
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".log":      true,
	".json":     true,
}

// Document is a named piece of source material. Name is the original
// filename; ad-hoc text may leave it empty and gets a generated identity.
type Document struct {
	Name    string
	Content string
}

// Options tunes the retrieval pipeline. Zero values select the defaults.
type Options struct {
	BaseK int
	TopN  int
}

// Store is the knowledge base. It owns no state of its own; all persistence
// goes through the injected index.
type Store struct {
	splitter *chunk.Splitter
	embedder Embedder
	index    index.Index
	reranker rerank.Reranker
	baseK    int
	topN     int
	logger   log.Logger
}

// NewStore wires the retrieval pipeline together.
func NewStore(splitter *chunk.Splitter, embedder Embedder, idx index.Index, reranker rerank.Reranker, opts Options, logger log.Logger) (*Store, error) {
	if splitter == nil {
		return nil, errors.New("splitter is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if idx == nil {
		return nil, errors.New("index is required")
	}
	if reranker == nil {
		return nil, errors.New("reranker is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.BaseK <= 0 {
		opts.BaseK = DefaultBaseK
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	return &Store{
		splitter: splitter,
		embedder: embedder,
		index:    idx,
		reranker: reranker,
		baseK:    opts.BaseK,
		topN:     opts.TopN,
		logger:   logger,
	}, nil
}

// Ingest chunks, embeds, and indexes one document into the namespace. It
// returns the number of chunks written.
//
// Chunk identity is content-derived, so re-ingesting an unchanged document
// overwrites its chunks in place instead of duplicating them.
func (s *Store) Ingest(ctx context.Context, namespace string, doc Document) (int, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return 0, fmt.Errorf("%w: %q", ErrEmptyDocument, doc.Name)
	}
	if ext := strings.ToLower(filepath.Ext(doc.Name)); doc.Name != "" && !supportedExtensions[ext] {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	docID := doc.Name
	if docID == "" {
		docID = uuid.NewString()
	}

	chunks := s.splitter.Split(doc.Content)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrEmptyDocument, doc.Name)
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embedding document %q: %w", docID, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding document %q: got %d vectors for %d chunks", docID, len(vectors), len(chunks))
	}

	items := make([]index.Item, len(chunks))
	for i, text := range chunks {
		items[i] = index.Item{
			ID:     chunkID(namespace, docID, i, text),
			Vector: vectors[i],
			Text:   text,
			Metadata: map[string]string{
				"document": docID,
				"chunk":    strconv.Itoa(i),
			},
		}
	}

	if err := s.index.Upsert(ctx, namespace, items); err != nil {
		return 0, fmt.Errorf("indexing document %q: %w", docID, err)
	}

	s.logger.Info("ingested document", "namespace", namespace, "document", docID, "chunks", len(items))
	return len(items), nil
}

// Retrieve runs the full retrieval pass for a query and formats the
// surviving chunks into a context block. When the namespace holds nothing
// relevant it returns NoResults.
//
// A reranker failure degrades the pass rather than failing it: the broad
// similarity order stands in for the reranked one.
func (s *Store) Retrieve(ctx context.Context, namespace, query string) (string, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("embedding query: got %d vectors for one text", len(vectors))
	}

	matches, err := s.index.Query(ctx, namespace, vectors[0], s.baseK)
	if err != nil {
		return "", fmt.Errorf("querying namespace %q: %w", namespace, err)
	}
	if len(matches) == 0 {
		return NoResults, nil
	}

	ranked, err := s.reranker.Rerank(ctx, query, matches, s.topN)
	if err != nil {
		s.logger.Warn("reranker failed, keeping similarity order", "namespace", namespace, "error", err)
		ranked, _ = rerank.NewPassthrough().Rerank(ctx, query, matches, s.topN)
	}
	if len(ranked) == 0 {
		return NoResults, nil
	}

	return formatContext(ranked), nil
}

// Clear deletes every chunk in the namespace. Clearing an empty or unknown
// namespace succeeds.
func (s *Store) Clear(ctx context.Context, namespace string) error {
	if err := s.index.DeleteNamespace(ctx, namespace); err != nil {
		return fmt.Errorf("clearing namespace %q: %w", namespace, err)
	}
	s.logger.Info("cleared knowledge base", "namespace", namespace)
	return nil
}

// chunkID derives a stable identifier from everything that defines a chunk.
// NUL separators keep distinct field combinations from colliding.
func chunkID(namespace, docID string, seq int, text string) string {
	h := sha256.New()
	for _, part := range []string{namespace, docID, strconv.Itoa(seq), text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// formatContext renders chunks as delimited blocks. The reasoning model is
// prompted against this exact layout.
func formatContext(matches []index.Match) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		n := strconv.Itoa(i + 1)
		b.WriteString("---DOCUMENT " + n + "---\n")
		b.WriteString(m.Text)
		b.WriteString("\n---END OF DOCUMENT " + n + "---")
	}
	return b.String()
}
