package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/corvid0/corvid/internal/log"
)

// KnowledgeQueryName is the knowledge retrieval tool's identifier.
const KnowledgeQueryName = "queryKnowledgeBase"

// Retriever runs a retrieval pass against one namespace of the knowledge
// base. Implemented by knowledge.Store.
type Retriever interface {
	Retrieve(ctx context.Context, namespace, query string) (string, error)
}

// NewKnowledgeTool creates the retrieval tool bound to one conversation's
// namespace. The binding happens here, at construction: the model never
// chooses or sees the namespace.
func NewKnowledgeTool(retriever Retriever, namespace string, logger log.Logger) *ExecutableTool {
	if logger == nil {
		logger = log.NewNop()
	}

	return NewTool(KnowledgeQueryName,
		"Search the user's uploaded documents for information relevant to a question. "+
			"Returns: matching document excerpts as delimited text blocks, or the exact string "+
			"'No relevant information found.' when nothing matches. "+
			"ALWAYS call this before answering questions that could be covered by uploaded documents. "+
			"If it reports no relevant information, say so rather than inventing an answer. "+
			"Arguments: query (string) - the question to search for.",
		false,
		func(ctx context.Context, input KnowledgeQueryInput) (Result, error) {
			if input.Query == "" {
				return Failure(ErrCodeInvalidArguments, "query must not be empty"), nil
			}

			start := time.Now()
			content, err := retriever.Retrieve(ctx, namespace, input.Query)
			if err != nil {
				logger.Warn("knowledge retrieval failed", "namespace", namespace, "error", err)
				// Transient backend failures go back as errors so the
				// dispatcher can retry; only permanent ones become results.
				if Transient(err) {
					return Result{}, fmt.Errorf("querying knowledge base: %w", err)
				}
				return Failure(ErrCodeUnavailable, "knowledge base is unavailable"), nil
			}

			logger.Debug("knowledge retrieval complete",
				"namespace", namespace, "elapsed", time.Since(start))
			return Success(map[string]any{"content": content}), nil
		},
	)
}
