// Package app assembles the application: configuration, database, Genkit,
// the knowledge pipeline, and the assistant facade. Everything is wired by
// explicit dependency injection; no package-level state.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/corvid0/corvid/db"
	"github.com/corvid0/corvid/internal/agent"
	"github.com/corvid0/corvid/internal/assistant"
	"github.com/corvid0/corvid/internal/chunk"
	"github.com/corvid0/corvid/internal/config"
	"github.com/corvid0/corvid/internal/index"
	"github.com/corvid0/corvid/internal/knowledge"
	"github.com/corvid0/corvid/internal/log"
	"github.com/corvid0/corvid/internal/rerank"
	"github.com/corvid0/corvid/internal/tools"
	"github.com/corvid0/corvid/internal/websearch"
)

// App holds the assembled application and its cleanup hooks.
type App struct {
	Config    *config.Config
	Genkit    *genkit.Genkit
	Pool      *pgxpool.Pool
	Assistant *assistant.Assistant
	Logger    log.Logger
}

// Setup creates and initializes the application. Call Close to release
// resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = log.NewNop()
	}

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := index.NewPool(ctx, cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.Pool = pool

	idx, err := index.NewPostgres(pool, logger)
	if err != nil {
		return nil, err
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai provider")
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	genkitEmbedder, err := knowledge.NewGenkitEmbedder(embedder)
	if err != nil {
		return nil, err
	}

	splitter, err := chunk.New(chunk.Options{MaxSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})
	if err != nil {
		return nil, fmt.Errorf("configuring chunker: %w", err)
	}

	store, err := knowledge.NewStore(splitter, genkitEmbedder, idx, provideReranker(cfg, logger),
		knowledge.Options{BaseK: cfg.BaseK, TopN: cfg.TopN}, logger)
	if err != nil {
		return nil, err
	}

	searcher, crawler, extractor := provideWebTools(cfg, logger)

	// Declare the tool surface once so the model sees every tool this
	// deployment offers. Execution always goes through per-request kits.
	declKit, err := declarationKit(store, searcher, crawler, extractor, logger)
	if err != nil {
		return nil, err
	}
	toolRefs := tools.Register(g, declKit)

	reasoner, err := agent.NewGenkitReasoner(g, cfg.FullModelName(), toolRefs)
	if err != nil {
		return nil, err
	}

	a.Assistant, err = assistant.New(assistant.Config{
		Reasoner:    reasoner,
		Store:       store,
		Searcher:    searcher,
		Crawler:     crawler,
		Extractor:   extractor,
		MaxSteps:    cfg.MaxSteps,
		MaxHistory:  cfg.MaxHistory,
		RateLimiter: rate.NewLimiter(10, 30),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		"model", cfg.FullModelName(),
		"embedder", cfg.EmbedderModel,
		"webSearch", searcher != nil,
		"rerank", cfg.Rerank.BaseURL != "")
	return a, nil
}

// Close releases the application's resources. Safe on a partially
// initialized App.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
		a.Pool = nil
	}
}

// provideReranker picks the configured reranking client, or passthrough
// when no service is configured.
func provideReranker(cfg *config.Config, logger log.Logger) rerank.Reranker {
	if cfg.Rerank.BaseURL == "" {
		return rerank.NewPassthrough()
	}
	client, err := rerank.NewClient(rerank.ClientConfig{
		BaseURL: cfg.Rerank.BaseURL,
		APIKey:  cfg.Rerank.APIKey,
		Model:   cfg.Rerank.Model,
	}, logger)
	if err != nil {
		logger.Warn("rerank client misconfigured, falling back to passthrough", "error", err)
		return rerank.NewPassthrough()
	}
	return client
}

// provideWebTools builds the web capabilities. Search needs a Tavily key;
// crawling and extraction are local and always available.
func provideWebTools(cfg *config.Config, logger log.Logger) (tools.Searcher, tools.Crawler, tools.Extractor) {
	var searcher tools.Searcher
	if cfg.Tavily.APIKey != "" {
		client, err := websearch.NewTavilyClient(websearch.TavilyConfig{
			APIKey:  cfg.Tavily.APIKey,
			BaseURL: cfg.Tavily.BaseURL,
		}, logger)
		if err != nil {
			logger.Warn("tavily client misconfigured, web search disabled", "error", err)
		} else {
			searcher = client
		}
	} else {
		logger.Info("TAVILY_API_KEY not set, web search disabled")
	}

	crawler := websearch.NewCrawler(websearch.CrawlerConfig{
		Parallelism: cfg.WebScraper.Parallelism,
		Delay:       time.Duration(cfg.WebScraper.DelayMs) * time.Millisecond,
		Timeout:     time.Duration(cfg.WebScraper.TimeoutMs) * time.Millisecond,
	}, logger)

	return searcher, crawler, websearch.NewExtractor(logger)
}

// declarationKit mirrors the per-request kit the assistant builds, with no
// conversation bound in. It exists only to register tool declarations.
func declarationKit(store *knowledge.Store, searcher tools.Searcher, crawler tools.Crawler, extractor tools.Extractor, logger log.Logger) (*tools.Kit, error) {
	kitTools := []*tools.ExecutableTool{
		tools.NewKnowledgeTool(store, "", logger),
		tools.NewCurrentTimeTool(nil),
	}
	if searcher != nil {
		kitTools = append(kitTools, tools.NewWebSearchTool(searcher, logger))
	}
	if crawler != nil {
		kitTools = append(kitTools, tools.NewWebCrawlTool(crawler, logger))
	}
	if extractor != nil {
		kitTools = append(kitTools, tools.NewWebExtractTool(extractor, logger))
	}
	return tools.NewKit(kitTools...)
}
