package websearch_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid0/corvid/internal/websearch"
)

func TestTavilySearch(t *testing.T) {
	var gotReq struct {
		Query         string `json:"query"`
		MaxResults    int    `json:"max_results"`
		SearchDepth   string `json:"search_depth"`
		IncludeAnswer bool   `json:"include_answer"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_, _ = w.Write([]byte(`{
			"answer": "Go 1.24 was released in February 2025.",
			"results": [
				{"title": "Go 1.24 Release Notes", "url": "https://go.dev/doc/go1.24", "content": "Go 1.24 arrives...", "score": 0.99}
			]
		}`))
	}))
	defer srv.Close()

	c, err := websearch.NewTavilyClient(websearch.TavilyConfig{APIKey: "tvly-test", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	resp, err := c.Search(context.Background(), "go 1.24 release date")
	require.NoError(t, err)

	assert.Equal(t, "go 1.24 release date", gotReq.Query)
	assert.Equal(t, 3, gotReq.MaxResults)
	assert.Equal(t, "advanced", gotReq.SearchDepth)
	assert.True(t, gotReq.IncludeAnswer)

	assert.Equal(t, "Go 1.24 was released in February 2025.", resp.Answer)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://go.dev/doc/go1.24", resp.Results[0].URL)
}

func TestTavilySearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := websearch.NewTavilyClient(websearch.TavilyConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTavilyRequiresAPIKey(t *testing.T) {
	_, err := websearch.NewTavilyClient(websearch.TavilyConfig{}, nil)
	require.Error(t, err)
}

func TestTavilyEmptyQuery(t *testing.T) {
	c, err := websearch.NewTavilyClient(websearch.TavilyConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "")
	require.Error(t, err)
}

func TestCrawlerStaysOnDomainAndBounds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Home</title></head><body>
			Welcome to the test site.
			<a href="/about">About</a>
			<a href="https://elsewhere.invalid/offsite">Offsite</a>
		</body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>About</title></head><body>All about the test site.</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := websearch.NewCrawler(websearch.CrawlerConfig{Delay: time.Millisecond}, nil)

	pages, err := c.Crawl(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	urls := map[string]bool{}
	for _, p := range pages {
		urls[p.URL] = true
		assert.NotEmpty(t, p.Content)
	}
	assert.True(t, urls[srv.URL+"/"] || urls[srv.URL], "home page crawled")
	assert.True(t, urls[srv.URL+"/about"], "same-domain link followed")
}

func TestCrawlerInvalidURL(t *testing.T) {
	c := websearch.NewCrawler(websearch.CrawlerConfig{}, nil)

	_, err := c.Crawl(context.Background(), "not a url")
	require.Error(t, err)
}

func TestExtractorReadableArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Release Notes</title></head><body>
			<article>
				<h1>Release Notes</h1>
				<p>This release focuses on performance. The runtime is faster across the board,
				garbage collection pauses are shorter, and the compiler produces smaller binaries.
				Users upgrading from the previous version should see improvements without any
				code changes at all.</p>
				<p>The tooling also gained several quality of life improvements requested by the
				community over the last development cycle.</p>
			</article>
		</body></html>`)
	}))
	defer srv.Close()

	e := websearch.NewExtractor(nil)

	article, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, article.Text, "performance")
	assert.Contains(t, article.Text, "quality of life")
	assert.NotContains(t, article.Text, "<p>", "output is text, not markup")
}

func TestExtractorFallbackStripsScripts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Sparse</title><script>var hidden = 1;</script></head>
			<body>tiny page</body></html>`)
	}))
	defer srv.Close()

	e := websearch.NewExtractor(nil)

	article, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, article.Text, "tiny page")
	assert.NotContains(t, article.Text, "hidden")
}

func TestExtractorHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := websearch.NewExtractor(nil)

	_, err := e.Extract(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
