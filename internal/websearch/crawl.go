package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/corvid0/corvid/internal/log"
)

// Crawl bounds. Crawling is the agent's most expensive web action, so the
// walk is capped hard in depth and page count and never leaves the start
// domain.
const (
	crawlMaxDepth    = 3
	crawlPageLimit   = 20
	crawlPageMaxText = 2000
	crawlUserAgent   = "corvid/1.0"
)

// Page is one crawled page, its text collapsed to single-space form and
// truncated to a digestible size.
type Page struct {
	URL     string
	Title   string
	Content string
}

// CrawlerConfig tunes per-domain politeness.
type CrawlerConfig struct {
	Parallelism int           // max concurrent requests per domain; default 2
	Delay       time.Duration // pause between requests; default 1s
	Timeout     time.Duration // per-request timeout; default 30s
}

// Crawler walks a site breadth-first within fixed bounds.
type Crawler struct {
	cfg    CrawlerConfig
	logger log.Logger
}

// NewCrawler creates a Crawler, applying defaults for zero-value config.
func NewCrawler(cfg CrawlerConfig, logger log.Logger) *Crawler {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 2
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Crawler{cfg: cfg, logger: logger}
}

// Crawl visits startURL and follows same-domain links up to the depth and
// page limits. Pages that fail to load are skipped, not fatal; the crawl
// fails only when the start URL itself is unreachable or no page yields text.
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]Page, error) {
	start, err := url.Parse(startURL)
	if err != nil || start.Hostname() == "" {
		return nil, fmt.Errorf("invalid crawl URL %q", startURL)
	}

	collector := colly.NewCollector(
		colly.MaxDepth(crawlMaxDepth),
		colly.AllowedDomains(start.Hostname()),
		colly.UserAgent(crawlUserAgent),
	)
	collector.SetRequestTimeout(c.cfg.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.cfg.Parallelism,
		Delay:       c.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configuring crawl limits: %w", err)
	}

	var (
		mu    sync.Mutex
		pages []Page
	)

	collector.OnRequest(func(r *colly.Request) {
		mu.Lock()
		full := len(pages) >= crawlPageLimit
		mu.Unlock()
		if full || ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		_ = e.Request.Visit(e.Attr("href"))
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.DOM.Find("title").First().Text())
		text := collapseText(e.DOM.Find("body").Text())
		if text == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if len(pages) >= crawlPageLimit {
			return
		}
		pages = append(pages, Page{URL: e.Request.URL.String(), Title: title, Content: text})
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Warn("crawl page failed", "url", r.Request.URL.String(), "error", err)
	})

	if err := collector.Visit(startURL); err != nil {
		return nil, fmt.Errorf("crawling %q: %w", startURL, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, errors.New("crawl produced no readable pages")
	}

	c.logger.Debug("crawl complete", "start", startURL, "pages", len(pages))
	return pages, nil
}

// collapseText folds runs of whitespace into single spaces and truncates to
// the per-page cap at a rune boundary.
func collapseText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= crawlPageMaxText {
		return s
	}
	runes := []rune(s)
	if len(runes) > crawlPageMaxText {
		runes = runes[:crawlPageMaxText]
	}
	return string(runes)
}
