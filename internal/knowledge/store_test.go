package knowledge_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid0/corvid/internal/chunk"
	"github.com/corvid0/corvid/internal/index"
	"github.com/corvid0/corvid/internal/knowledge"
	"github.com/corvid0/corvid/internal/rerank"
	"github.com/corvid0/corvid/internal/testutil"
)

func newStore(t *testing.T) (*knowledge.Store, *index.Memory) {
	t.Helper()

	splitter, err := chunk.New(chunk.Options{})
	require.NoError(t, err)

	idx := index.NewMemory()
	store, err := knowledge.NewStore(splitter, testutil.NewEmbedder(), idx, rerank.NewPassthrough(), knowledge.Options{}, nil)
	require.NoError(t, err)
	return store, idx
}

func TestIngestAndRetrieve(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Ingest(ctx, "c1", knowledge.Document{
		Name:    "france.txt",
		Content: "Paris is the capital of France. It sits on the Seine river.",
	})
	require.NoError(t, err)

	_, err = store.Ingest(ctx, "c1", knowledge.Document{
		Name:    "pets.txt",
		Content: "Golden retrievers are friendly dogs that love to swim.",
	})
	require.NoError(t, err)

	out, err := store.Retrieve(ctx, "c1", "What is the capital of France?")
	require.NoError(t, err)

	assert.Contains(t, out, "Paris is the capital of France")
	assert.Contains(t, out, "---DOCUMENT 1---")
	assert.Contains(t, out, "---END OF DOCUMENT 1---")
	assert.True(t, strings.Index(out, "Paris") < strings.Index(out, "retrievers"),
		"the France chunk should rank above the dog chunk")
}

func TestIngestReportsChunkCount(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	n, err := store.Ingest(ctx, "c1", knowledge.Document{
		Name:    "short.txt",
		Content: "One small document.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngestIdempotent(t *testing.T) {
	ctx := context.Background()
	store, idx := newStore(t)

	doc := knowledge.Document{Name: "notes.md", Content: "The same document, ingested twice."}

	n1, err := store.Ingest(ctx, "c1", doc)
	require.NoError(t, err)
	n2, err := store.Ingest(ctx, "c1", doc)
	require.NoError(t, err)
	assert.Equal(t, n1, n2)

	// Chunk IDs are content-derived, so the second pass overwrote the first
	// instead of duplicating it.
	vec, err := testutil.NewEmbedder().Embed(ctx, []string{doc.Content})
	require.NoError(t, err)
	matches, err := idx.Query(ctx, "c1", vec[0], 100)
	require.NoError(t, err)
	assert.Len(t, matches, n1)
}

func TestIngestEmptyDocument(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Ingest(ctx, "c1", knowledge.Document{Name: "blank.txt", Content: "   \n\t "})
	assert.ErrorIs(t, err, knowledge.ErrEmptyDocument)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Ingest(ctx, "c1", knowledge.Document{Name: "report.pdf", Content: "binary-ish"})
	assert.ErrorIs(t, err, knowledge.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".pdf")
}

func TestIngestUnnamedDocument(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	n, err := store.Ingest(ctx, "c1", knowledge.Document{Content: "Pasted text without a filename."})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRetrieveEmptyNamespace(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	out, err := store.Retrieve(ctx, "c1", "anything")
	require.NoError(t, err)
	assert.Equal(t, knowledge.NoResults, out)
}

func TestRetrieveNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Ingest(ctx, "c1", knowledge.Document{
		Name:    "secret.txt",
		Content: "The launch code is kept in conversation one.",
	})
	require.NoError(t, err)

	out, err := store.Retrieve(ctx, "c2", "What is the launch code?")
	require.NoError(t, err)
	assert.Equal(t, knowledge.NoResults, out, "c2 must never see c1 documents")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Ingest(ctx, "c1", knowledge.Document{Name: "a.txt", Content: "Some indexed content."})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "c1"))
	require.NoError(t, store.Clear(ctx, "c1"), "clearing an already-empty namespace succeeds")

	out, err := store.Retrieve(ctx, "c1", "indexed content")
	require.NoError(t, err)
	assert.Equal(t, knowledge.NoResults, out)
}

type failingReranker struct{}

func (failingReranker) Rerank(context.Context, string, []index.Match, int) ([]index.Match, error) {
	return nil, errors.New("rerank service down")
}

func TestRetrieveDegradesWhenRerankerFails(t *testing.T) {
	ctx := context.Background()

	splitter, err := chunk.New(chunk.Options{})
	require.NoError(t, err)
	store, err := knowledge.NewStore(splitter, testutil.NewEmbedder(), index.NewMemory(), failingReranker{}, knowledge.Options{}, nil)
	require.NoError(t, err)

	_, err = store.Ingest(ctx, "c1", knowledge.Document{
		Name:    "france.txt",
		Content: "Paris is the capital of France.",
	})
	require.NoError(t, err)

	out, err := store.Retrieve(ctx, "c1", "capital of France")
	require.NoError(t, err, "a dead reranker must not fail retrieval")
	assert.Contains(t, out, "Paris is the capital of France")
}

func TestRetrieveHonorsTopN(t *testing.T) {
	ctx := context.Background()

	splitter, err := chunk.New(chunk.Options{})
	require.NoError(t, err)
	store, err := knowledge.NewStore(splitter, testutil.NewEmbedder(), index.NewMemory(), rerank.NewPassthrough(), knowledge.Options{TopN: 2}, nil)
	require.NoError(t, err)

	for _, content := range []string{
		"Alpha document about rivers.",
		"Beta document about rivers.",
		"Gamma document about rivers.",
		"Delta document about rivers.",
	} {
		_, err := store.Ingest(ctx, "c1", knowledge.Document{Content: content})
		require.NoError(t, err)
	}

	out, err := store.Retrieve(ctx, "c1", "document about rivers")
	require.NoError(t, err)
	assert.Contains(t, out, "---DOCUMENT 2---")
	assert.NotContains(t, out, "---DOCUMENT 3---")
}
