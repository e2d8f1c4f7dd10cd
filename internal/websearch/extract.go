package websearch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/corvid0/corvid/internal/log"
)

const (
	extractTimeout     = 30 * time.Second
	extractMaxBodySize = 8 << 20
	extractMaxText     = 8000
)

// Article is the readable content of a single page.
type Article struct {
	URL   string
	Title string
	Text  string
}

// Extractor fetches one URL and pulls out its main article text.
type Extractor struct {
	httpClient *http.Client
	logger     log.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger log.Logger) *Extractor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Extractor{
		httpClient: &http.Client{Timeout: extractTimeout},
		logger:     logger,
	}
}

// Extract fetches pageURL and returns its article text. Readability mode is
// tried first; pages it cannot parse (sparse markup, no article structure)
// fall back to stripped body text.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Article, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid extract URL %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building extract request: %w", err)
	}
	req.Header.Set("User-Agent", crawlUserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %q: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, extractMaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", pageURL, err)
	}

	article := &Article{URL: pageURL}

	if parsed, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil && strings.TrimSpace(parsed.TextContent) != "" {
		article.Title = strings.TrimSpace(parsed.Title)
		article.Text = truncateRunes(collapseParagraphs(parsed.TextContent), extractMaxText)
		return article, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", pageURL, err)
	}
	doc.Find("script, style, noscript").Remove()

	article.Title = strings.TrimSpace(doc.Find("title").First().Text())
	article.Text = truncateRunes(collapseText(doc.Find("body").Text()), extractMaxText)
	if article.Text == "" {
		return nil, fmt.Errorf("no readable text at %q", pageURL)
	}

	e.logger.Debug("extracted page via fallback", "url", pageURL)
	return article, nil
}

// collapseParagraphs trims each line and folds blank runs, keeping paragraph
// breaks that readability preserved.
func collapseParagraphs(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
