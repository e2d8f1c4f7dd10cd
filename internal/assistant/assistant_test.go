package assistant_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/corvid0/corvid/internal/assistant"
	"github.com/corvid0/corvid/internal/chunk"
	"github.com/corvid0/corvid/internal/index"
	"github.com/corvid0/corvid/internal/knowledge"
	"github.com/corvid0/corvid/internal/rerank"
	"github.com/corvid0/corvid/internal/testutil"
	"github.com/corvid0/corvid/internal/tools"
)

func newAssistant(t *testing.T, reasoner *testutil.ScriptedReasoner) *assistant.Assistant {
	t.Helper()

	splitter, err := chunk.New(chunk.Options{})
	require.NoError(t, err)
	store, err := knowledge.NewStore(splitter, testutil.NewEmbedder(), index.NewMemory(), rerank.NewPassthrough(), knowledge.Options{}, nil)
	require.NoError(t, err)

	a, err := assistant.New(assistant.Config{
		Reasoner:    reasoner,
		Store:       store,
		RateLimiter: rate.NewLimiter(rate.Inf, 1),
	})
	require.NoError(t, err)
	return a
}

func TestIngestAskClearRoundTrip(t *testing.T) {
	ctx := context.Background()

	reasoner := testutil.NewScriptedReasoner().
		ToolCalls(&ai.ToolRequest{
			Name:  tools.KnowledgeQueryName,
			Ref:   "r1",
			Input: map[string]any{"query": "capital of France"},
		}).
		Text("According to your document, Paris is the capital of France.")
	a := newAssistant(t, reasoner)

	n, err := a.Ingest(ctx, "conv-1", []byte("Paris is the capital of France."), "france.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	answer := a.Ask(ctx, "conv-1", "What is the capital of France?", nil)
	assert.Equal(t, "According to your document, Paris is the capital of France.", answer)

	// The retrieval tool actually hit conv-1's namespace.
	second := reasoner.Calls()[1]
	toolResp := second[len(second)-1].Content[0].ToolResponse
	require.NotNil(t, toolResp)
	result := toolResp.Output.(tools.Result)
	assert.Contains(t, fmt.Sprint(result.Data["content"]), "Paris is the capital of France")

	assert.True(t, a.ClearKnowledgeBase(ctx, "conv-1"))
	assert.True(t, a.ClearKnowledgeBase(ctx, "conv-1"), "second clear still succeeds")
}

func TestIngestSurfacesTypedErrors(t *testing.T) {
	ctx := context.Background()
	a := newAssistant(t, testutil.NewScriptedReasoner().Text("unused"))

	_, err := a.Ingest(ctx, "conv-1", []byte("data"), "slides.pptx")
	assert.ErrorIs(t, err, knowledge.ErrUnsupportedFormat)

	_, err = a.Ingest(ctx, "conv-1", []byte("  \n"), "empty.txt")
	assert.ErrorIs(t, err, knowledge.ErrEmptyDocument)
}

func TestIngestPastedTextWithoutFilename(t *testing.T) {
	ctx := context.Background()
	a := newAssistant(t, testutil.NewScriptedReasoner().Text("unused"))

	n, err := a.Ingest(ctx, "conv-1", []byte("Pasted notes about quarterly planning."), "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAskKnowledgeIsolatedPerConversation(t *testing.T) {
	ctx := context.Background()

	reasoner := testutil.NewScriptedReasoner().
		ToolCalls(&ai.ToolRequest{
			Name:  tools.KnowledgeQueryName,
			Input: map[string]any{"query": "secret plan"},
		}).
		Text("I don't have that information.")
	a := newAssistant(t, reasoner)

	_, err := a.Ingest(ctx, "conv-1", []byte("The secret plan is stored here."), "plan.txt")
	require.NoError(t, err)

	a.Ask(ctx, "conv-2", "What is the secret plan?", nil)

	second := reasoner.Calls()[1]
	result := second[len(second)-1].Content[0].ToolResponse.Output.(tools.Result)
	assert.Equal(t, knowledge.NoResults, result.Data["content"],
		"conv-2's retrieval tool must not see conv-1 documents")
}

func TestAskTruncatesHistory(t *testing.T) {
	reasoner := testutil.NewScriptedReasoner().Text("ok")
	a := newAssistant(t, reasoner)

	history := make([]assistant.Turn, 0, 30)
	for i := range 30 {
		history = append(history, assistant.Turn{Role: assistant.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}

	a.Ask(context.Background(), "conv-1", "latest question", history)

	msgs := reasoner.Calls()[0]
	// System prompt + 20 most recent turns + the new question.
	require.Len(t, msgs, assistant.DefaultMaxHistory+2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, "turn 10", msgs[1].Text(), "oldest surviving turn is number 10 of 30")
	assert.Equal(t, "latest question", msgs[len(msgs)-1].Text())
}

func TestAskMapsAssistantTurnsToModelRole(t *testing.T) {
	reasoner := testutil.NewScriptedReasoner().Text("ok")
	a := newAssistant(t, reasoner)

	a.Ask(context.Background(), "conv-1", "next", []assistant.Turn{
		{Role: assistant.RoleUser, Content: "hello"},
		{Role: assistant.RoleAssistant, Content: "hi there"},
	})

	msgs := reasoner.Calls()[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, ai.RoleUser, msgs[1].Role)
	assert.Equal(t, ai.RoleModel, msgs[2].Role)
}

func TestAskNeverFailsOutward(t *testing.T) {
	reasoner := testutil.NewScriptedReasoner().Fail(fmt.Errorf("provider down"))
	a := newAssistant(t, reasoner)

	answer := a.Ask(context.Background(), "conv-1", "hello", nil)
	assert.Contains(t, answer, "I encountered an error:")
}
