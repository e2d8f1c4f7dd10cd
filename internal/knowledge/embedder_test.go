package knowledge_test

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid0/corvid/internal/knowledge"
	"github.com/corvid0/corvid/internal/testutil"
)

func TestGenkitEmbedder(t *testing.T) {
	g := genkit.Init(context.Background())
	embedder := testutil.RegisterEmbedder(g, testutil.NewEmbedder())

	ge, err := knowledge.NewGenkitEmbedder(embedder)
	require.NoError(t, err)

	vecs, err := ge.Embed(context.Background(), []string{"alpha beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEmpty(t, vecs[0])

	// Determinism: the same text embeds to the same vector.
	again, err := ge.Embed(context.Background(), []string{"alpha beta"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], again[0])
}

func TestGenkitEmbedderRequiresEmbedder(t *testing.T) {
	_, err := knowledge.NewGenkitEmbedder(nil)
	assert.Error(t, err)
}
