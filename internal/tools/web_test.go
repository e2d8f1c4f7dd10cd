package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid0/corvid/internal/websearch"
)

type stubSearcher struct {
	resp *websearch.SearchResponse
	err  error
}

func (s *stubSearcher) Search(context.Context, string) (*websearch.SearchResponse, error) {
	return s.resp, s.err
}

type stubCrawler struct {
	pages []websearch.Page
	err   error
}

func (s *stubCrawler) Crawl(context.Context, string) ([]websearch.Page, error) {
	return s.pages, s.err
}

type stubExtractor struct {
	article *websearch.Article
	err     error
}

func (s *stubExtractor) Extract(context.Context, string) (*websearch.Article, error) {
	return s.article, s.err
}

func mustResult(t *testing.T, out any) Result {
	t.Helper()
	result, ok := out.(Result)
	require.True(t, ok, "tool output should be a Result, got %T", out)
	return result
}

func TestWebSearchTool(t *testing.T) {
	tool := NewWebSearchTool(&stubSearcher{resp: &websearch.SearchResponse{
		Answer: "Paris.",
		Results: []websearch.SearchResult{
			{Title: "Capital of France", URL: "https://example.com/fr", Content: "Paris is the capital."},
		},
	}}, nil)

	out, err := tool.Execute(context.Background(), map[string]any{"query": "capital of france"})
	require.NoError(t, err)

	result := mustResult(t, out)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "Paris.", result.Data["answer"])

	results, ok := result.Data["results"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/fr", results[0]["url"])
}

func TestWebSearchToolFailure(t *testing.T) {
	tool := NewWebSearchTool(&stubSearcher{err: errors.New("api down")}, nil)

	out, err := tool.Execute(context.Background(), WebSearchInput{Query: "q"})
	require.NoError(t, err)

	result := mustResult(t, out)
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, ErrCodeUnavailable, result.Error.Code)
}

func TestWebSearchToolTransientFailureReturnsError(t *testing.T) {
	tool := NewWebSearchTool(&stubSearcher{err: errors.New("tavily request failed: status 503")}, nil)

	_, err := tool.Execute(context.Background(), WebSearchInput{Query: "q"})
	require.Error(t, err, "rate limits and server errors go back for a retry")
}

func TestWebSearchToolEmptyQuery(t *testing.T) {
	tool := NewWebSearchTool(&stubSearcher{}, nil)

	out, err := tool.Execute(context.Background(), WebSearchInput{})
	require.NoError(t, err)
	assert.Equal(t, ErrCodeInvalidArguments, mustResult(t, out).Error.Code)
}

func TestWebCrawlTool(t *testing.T) {
	tool := NewWebCrawlTool(&stubCrawler{pages: []websearch.Page{
		{URL: "https://site.test/", Title: "Home", Content: "welcome"},
		{URL: "https://site.test/docs", Title: "Docs", Content: "manual"},
	}}, nil)

	out, err := tool.Execute(context.Background(), WebCrawlInput{URL: "https://site.test/"})
	require.NoError(t, err)

	result := mustResult(t, out)
	assert.Equal(t, StatusSuccess, result.Status)

	pages, ok := result.Data["pages"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, pages, 2)
	assert.Equal(t, "Docs", pages[1]["title"])
}

func TestWebCrawlToolIsLongRunning(t *testing.T) {
	assert.True(t, NewWebCrawlTool(&stubCrawler{}, nil).IsLongRunning())
	assert.False(t, NewWebSearchTool(&stubSearcher{}, nil).IsLongRunning())
}

func TestWebExtractTool(t *testing.T) {
	tool := NewWebExtractTool(&stubExtractor{article: &websearch.Article{
		URL:   "https://site.test/post",
		Title: "A Post",
		Text:  "The whole article.",
	}}, nil)

	out, err := tool.Execute(context.Background(), WebExtractInput{URL: "https://site.test/post"})
	require.NoError(t, err)

	result := mustResult(t, out)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "A Post", result.Data["title"])
	assert.Equal(t, "The whole article.", result.Data["content"])
}

func TestWebExtractToolFailure(t *testing.T) {
	tool := NewWebExtractTool(&stubExtractor{err: errors.New("404")}, nil)

	out, err := tool.Execute(context.Background(), WebExtractInput{URL: "https://site.test/missing"})
	require.NoError(t, err)
	assert.Equal(t, ErrCodeUnavailable, mustResult(t, out).Error.Code)
}
