package tools

// KnowledgeQueryInput defines input for the queryKnowledgeBase tool.
type KnowledgeQueryInput struct {
	Query string `json:"query" jsonschema_description:"The question to search the knowledge base for"`
}

// WebSearchInput defines input for the webSearch tool.
type WebSearchInput struct {
	Query string `json:"query" jsonschema_description:"The web search query"`
}

// WebCrawlInput defines input for the webCrawl tool.
type WebCrawlInput struct {
	URL string `json:"url" jsonschema_description:"The starting URL of the site to crawl"`
}

// WebExtractInput defines input for the webExtract tool.
type WebExtractInput struct {
	URL string `json:"url" jsonschema_description:"The URL of the page to extract"`
}

// CurrentTimeInput defines input for the currentTime tool.
type CurrentTimeInput struct{}
