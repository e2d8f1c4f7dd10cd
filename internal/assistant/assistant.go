// Package assistant is the outward face of the system: ingest documents into
// a conversation's knowledge base, ask questions against it, and clear it.
//
// Each conversation maps to one index namespace. Tool kits are assembled per
// request with the conversation's namespace bound in, so a running turn can
// only ever touch its own knowledge.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"

	"github.com/corvid0/corvid/internal/agent"
	"github.com/corvid0/corvid/internal/knowledge"
	"github.com/corvid0/corvid/internal/log"
	"github.com/corvid0/corvid/internal/tools"
)

// DefaultMaxHistory is how many prior turns accompany a question.
const DefaultMaxHistory = 20

const systemPrompt = "You are a helpful assistant with access to tools. " +
	"Use queryKnowledgeBase before answering anything the user's uploaded documents might cover; " +
	"when it returns 'No relevant information found.', say you don't have that information instead of guessing. " +
	"Use webSearch for current events and facts outside the documents, " +
	"webExtract to read a specific page, and webCrawl only when a whole site must be explored. " +
	"Call currentTime before answering anything involving today's date or time. " +
	"Answer in the user's language, concisely, citing which document or page a fact came from when you can."

// Role identifies who produced a conversation turn.
type Role string

// Turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior exchange entry in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// Config wires an Assistant.
type Config struct {
	Reasoner agent.Reasoner   // required
	Store    *knowledge.Store // required

	// Optional web capabilities; nil disables the corresponding tool.
	Searcher  tools.Searcher
	Crawler   tools.Crawler
	Extractor tools.Extractor

	MaxSteps    int
	MaxHistory  int
	ToolTimeout time.Duration
	RateLimiter *rate.Limiter // shared across conversations
	Logger      log.Logger
}

// Assistant serves every conversation. Safe for concurrent use.
type Assistant struct {
	reasoner    agent.Reasoner
	store       *knowledge.Store
	searcher    tools.Searcher
	crawler     tools.Crawler
	extractor   tools.Extractor
	maxSteps    int
	maxHistory  int
	toolTimeout time.Duration
	limiter     *rate.Limiter
	logger      log.Logger
}

// New creates an Assistant.
func New(cfg Config) (*Assistant, error) {
	if cfg.Reasoner == nil {
		return nil, errors.New("reasoner is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("knowledge store is required")
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = rate.NewLimiter(10, 30)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	return &Assistant{
		reasoner:    cfg.Reasoner,
		store:       cfg.Store,
		searcher:    cfg.Searcher,
		crawler:     cfg.Crawler,
		extractor:   cfg.Extractor,
		maxSteps:    cfg.MaxSteps,
		maxHistory:  cfg.MaxHistory,
		toolTimeout: cfg.ToolTimeout,
		limiter:     cfg.RateLimiter,
		logger:      cfg.Logger,
	}, nil
}

// Ingest adds one document to the conversation's knowledge base and returns
// the number of chunks created. An empty filename means pasted text.
//
// knowledge.ErrUnsupportedFormat and knowledge.ErrEmptyDocument surface to
// the caller; they are user mistakes, not system failures.
func (a *Assistant) Ingest(ctx context.Context, conversationID string, data []byte, filename string) (int, error) {
	if conversationID == "" {
		return 0, errors.New("conversation ID is required")
	}

	return a.store.Ingest(ctx, conversationID, knowledge.Document{
		Name:    filename,
		Content: string(data),
	})
}

// Ask answers one user message in the context of the conversation. It never
// fails outward: every failure path produces a readable degraded answer.
func (a *Assistant) Ask(ctx context.Context, conversationID, userMessage string, history []Turn) string {
	kit, err := a.buildKit(conversationID)
	if err != nil {
		a.logger.Error("building tool kit failed", "conversation", conversationID, "error", err)
		return fmt.Sprintf("I encountered an error: %v", err)
	}

	loop, err := agent.New(agent.Config{
		Reasoner:    a.reasoner,
		Kit:         kit,
		MaxSteps:    a.maxSteps,
		ToolTimeout: a.toolTimeout,
		RateLimiter: a.limiter,
		Logger:      a.logger,
	})
	if err != nil {
		a.logger.Error("building agent loop failed", "conversation", conversationID, "error", err)
		return fmt.Sprintf("I encountered an error: %v", err)
	}

	return loop.Run(ctx, a.buildMessages(userMessage, history))
}

// ClearKnowledgeBase deletes the conversation's documents. Best-effort:
// failures are logged and reported as false, never raised, so conversation
// deletion can proceed regardless. Clearing an empty namespace returns true.
func (a *Assistant) ClearKnowledgeBase(ctx context.Context, conversationID string) bool {
	if err := a.store.Clear(ctx, conversationID); err != nil {
		a.logger.Warn("knowledge base cleanup failed",
			"conversation", conversationID, "error", err)
		return false
	}
	return true
}

// buildKit assembles the per-request tool kit with the conversation's
// namespace bound into the retrieval tool.
func (a *Assistant) buildKit(conversationID string) (*tools.Kit, error) {
	kitTools := []*tools.ExecutableTool{
		tools.NewKnowledgeTool(a.store, conversationID, a.logger),
		tools.NewCurrentTimeTool(nil),
	}
	if a.searcher != nil {
		kitTools = append(kitTools, tools.NewWebSearchTool(a.searcher, a.logger))
	}
	if a.crawler != nil {
		kitTools = append(kitTools, tools.NewWebCrawlTool(a.crawler, a.logger))
	}
	if a.extractor != nil {
		kitTools = append(kitTools, tools.NewWebExtractTool(a.extractor, a.logger))
	}
	return tools.NewKit(kitTools...)
}

// buildMessages renders system prompt, truncated history, and the new user
// message into the model conversation.
func (a *Assistant) buildMessages(userMessage string, history []Turn) []*ai.Message {
	if len(history) > a.maxHistory {
		history = history[len(history)-a.maxHistory:]
	}

	msgs := make([]*ai.Message, 0, len(history)+2)
	msgs = append(msgs, &ai.Message{
		Role:    ai.RoleSystem,
		Content: []*ai.Part{ai.NewTextPart(systemPrompt)},
	})
	for _, turn := range history {
		role := ai.RoleUser
		if turn.Role == RoleAssistant {
			role = ai.RoleModel
		}
		msgs = append(msgs, &ai.Message{
			Role:    role,
			Content: []*ai.Part{ai.NewTextPart(turn.Content)},
		})
	}
	msgs = append(msgs, &ai.Message{
		Role:    ai.RoleUser,
		Content: []*ai.Part{ai.NewTextPart(userMessage)},
	})
	return msgs
}
