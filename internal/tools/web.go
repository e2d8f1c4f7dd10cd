package tools

import (
	"context"
	"fmt"

	"github.com/corvid0/corvid/internal/log"
	"github.com/corvid0/corvid/internal/websearch"
)

// Web tool identifiers.
const (
	WebSearchName  = "webSearch"
	WebCrawlName   = "webCrawl"
	WebExtractName = "webExtract"
)

// Searcher runs one web search. Implemented by websearch.TavilyClient.
type Searcher interface {
	Search(ctx context.Context, query string) (*websearch.SearchResponse, error)
}

// Crawler walks a site within fixed bounds. Implemented by
// websearch.Crawler.
type Crawler interface {
	Crawl(ctx context.Context, startURL string) ([]websearch.Page, error)
}

// Extractor pulls the article text out of one page. Implemented by
// websearch.Extractor.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*websearch.Article, error)
}

// NewWebSearchTool creates the quick-lookup search tool.
func NewWebSearchTool(searcher Searcher, logger log.Logger) *ExecutableTool {
	if logger == nil {
		logger = log.NewNop()
	}

	return NewTool(WebSearchName,
		"Search the web for current information. "+
			"Returns: up to 3 relevant results (title, url, content snippet) plus a short synthesized answer. "+
			"Use this for factual lookups, recent events, and anything the knowledge base does not cover. "+
			"Prefer this over crawling; it is fast and cheap. "+
			"Arguments: query (string) - the web search query.",
		false,
		func(ctx context.Context, input WebSearchInput) (Result, error) {
			if input.Query == "" {
				return Failure(ErrCodeInvalidArguments, "query must not be empty"), nil
			}

			resp, err := searcher.Search(ctx, input.Query)
			if err != nil {
				logger.Warn("web search failed", "query", input.Query, "error", err)
				if Transient(err) {
					return Result{}, fmt.Errorf("searching the web: %w", err)
				}
				return Failure(ErrCodeUnavailable, "web search is unavailable"), nil
			}

			results := make([]map[string]any, len(resp.Results))
			for i, r := range resp.Results {
				results[i] = map[string]any{
					"title":   r.Title,
					"url":     r.URL,
					"content": r.Content,
				}
			}
			return Success(map[string]any{
				"answer":  resp.Answer,
				"results": results,
			}), nil
		},
	)
}

// NewWebCrawlTool creates the bounded site crawler tool.
func NewWebCrawlTool(crawler Crawler, logger log.Logger) *ExecutableTool {
	if logger == nil {
		logger = log.NewNop()
	}

	return NewTool(WebCrawlName,
		"Explore a website by following its internal links, up to 3 levels deep and 20 pages. "+
			"Returns: the url, title, and text of each page visited. "+
			"Use this sparingly; it is the most expensive web action. "+
			"Prefer webSearch for lookups and webExtract when you already know the page. "+
			"Arguments: url (string) - the starting URL of the site.",
		true,
		func(ctx context.Context, input WebCrawlInput) (Result, error) {
			if input.URL == "" {
				return Failure(ErrCodeInvalidArguments, "url must not be empty"), nil
			}

			pages, err := crawler.Crawl(ctx, input.URL)
			if err != nil {
				logger.Warn("web crawl failed", "url", input.URL, "error", err)
				if Transient(err) {
					return Result{}, fmt.Errorf("crawling %s: %w", input.URL, err)
				}
				return Failure(ErrCodeUnavailable, "web crawl failed"), nil
			}

			out := make([]map[string]any, len(pages))
			for i, p := range pages {
				out[i] = map[string]any{
					"url":     p.URL,
					"title":   p.Title,
					"content": p.Content,
				}
			}
			return Success(map[string]any{"pages": out}), nil
		},
	)
}

// NewWebExtractTool creates the single-page extraction tool.
func NewWebExtractTool(extractor Extractor, logger log.Logger) *ExecutableTool {
	if logger == nil {
		logger = log.NewNop()
	}

	return NewTool(WebExtractName,
		"Fetch one specific URL and return its readable article text. "+
			"Returns: the page title and main text with navigation and markup stripped. "+
			"Use this when a search result or the user points at a specific page worth reading in full. "+
			"Arguments: url (string) - the page to extract.",
		true,
		func(ctx context.Context, input WebExtractInput) (Result, error) {
			if input.URL == "" {
				return Failure(ErrCodeInvalidArguments, "url must not be empty"), nil
			}

			article, err := extractor.Extract(ctx, input.URL)
			if err != nil {
				logger.Warn("web extract failed", "url", input.URL, "error", err)
				if Transient(err) {
					return Result{}, fmt.Errorf("extracting %s: %w", input.URL, err)
				}
				return Failure(ErrCodeUnavailable, "page extraction failed"), nil
			}

			return Success(map[string]any{
				"url":     article.URL,
				"title":   article.Title,
				"content": article.Text,
			}), nil
		},
	)
}
