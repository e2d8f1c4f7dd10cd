package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corvid0/corvid/internal/index"
	"github.com/corvid0/corvid/internal/log"
)

// DefaultModel is the cross-encoder used when none is configured.
const DefaultModel = "ms-marco-MiniLM-L-12-v2"

const (
	rerankPath     = "/v1/rerank"
	requestTimeout = 15 * time.Second
	maxBodySize    = 4 << 20
)

// Client calls a Cohere-compatible rerank endpoint. It implements Reranker.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     log.Logger
}

// ClientConfig configures a rerank Client.
type ClientConfig struct {
	BaseURL string // service URL, required
	APIKey  string // bearer token, optional for self-hosted services
	Model   string // cross-encoder model name; empty means DefaultModel
}

// NewClient creates a rerank API client.
func NewClient(cfg ClientConfig, logger log.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("rerank base URL is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float32 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank implements Reranker. The service scores each (query, document) pair
// and returns document indices in relevance order; candidates are mapped back
// by index so no candidate can be fabricated.
func (c *Client) Rerank(ctx context.Context, query string, candidates []index.Match, topN int) ([]index.Match, error) {
	if topN <= 0 || len(candidates) == 0 {
		return nil, nil
	}

	docs := make([]string, len(candidates))
	for i, cand := range candidates {
		docs[i] = cand.Text
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: docs,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+rerankPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling rerank service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank service returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}

	out := make([]index.Match, 0, min(topN, len(parsed.Results)))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(candidates) {
			c.logger.Warn("rerank result index out of range", "index", r.Index, "candidates", len(candidates))
			continue
		}
		m := candidates[r.Index]
		m.Similarity = r.RelevanceScore
		out = append(out, m)
		if len(out) == topN {
			break
		}
	}

	c.logger.Debug("reranked candidates", "in", len(candidates), "out", len(out))
	return out, nil
}
