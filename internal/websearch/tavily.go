// Package websearch gives the agent its view of the live web: a Tavily
// search client for factual lookups, a bounded same-domain crawler, and a
// single-page article extractor.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corvid0/corvid/internal/log"
)

// Tavily API defaults. Three results with an advanced-depth search and a
// short synthesized answer is the quality/noise sweet spot for agent use.
const (
	DefaultTavilyURL = "https://api.tavily.com"

	searchPath        = "/search"
	searchMaxResults  = 3
	searchDepth       = "advanced"
	searchTimeout     = 30 * time.Second
	searchMaxBodySize = 4 << 20
)

// SearchResult is one web hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// SearchResponse is the outcome of one search call. Answer is a short
// synthesized summary and may be empty.
type SearchResponse struct {
	Answer  string         `json:"answer"`
	Results []SearchResult `json:"results"`
}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     log.Logger
}

// TavilyConfig configures a TavilyClient.
type TavilyConfig struct {
	APIKey  string // required
	BaseURL string // empty means DefaultTavilyURL
}

// NewTavilyClient creates a Tavily search client.
func NewTavilyClient(cfg TavilyConfig, logger log.Logger) (*TavilyClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tavily API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTavilyURL
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &TavilyClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: searchTimeout},
		logger:     logger,
	}, nil
}

type tavilySearchRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	Topic         string `json:"topic"`
	IncludeAnswer bool   `json:"include_answer"`
}

// Search runs one web search.
func (c *TavilyClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}

	body, err := json.Marshal(tavilySearchRequest{
		Query:         query,
		MaxResults:    searchMaxResults,
		SearchDepth:   searchDepth,
		Topic:         "general",
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling search API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, searchMaxBodySize)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	c.logger.Debug("web search complete", "query", query, "results", len(parsed.Results))
	return &parsed, nil
}
