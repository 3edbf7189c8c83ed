package research

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/astroamber/amber/internal/tavily"
)

// Tool names as presented to the model.
const (
	ToolWebSearch  = "web_search"
	ToolWebExtract = "web_extract"
	ToolWebCrawl   = "web_crawl"
	ToolFormat     = "format_research_response"
)

// WebProvider is the subset of the Tavily client the adapters use. Satisfied
// by *tavily.Client and by fakes in tests.
type WebProvider interface {
	Search(ctx context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error)
	Extract(ctx context.Context, req tavily.ExtractRequest) (*tavily.ExtractResponse, error)
	Crawl(ctx context.Context, req tavily.CrawlRequest) (*tavily.CrawlResponse, error)
}

// Formatter turns raw research content into a polished, cited response.
// Implemented by the LLM-backed formatter sub-agent.
type Formatter interface {
	Format(ctx context.Context, researchContent, formatStyle, userQuery string) (string, error)
}

// ToolboxOptions tunes provider invocations.
type ToolboxOptions struct {
	SearchMaxResults int
	CrawlMaxDepth    int
	CrawlLimit       int
}

// Toolbox binds the web provider and the response formatter behind the four
// research tools. Every adapter returns plain text and absorbs provider
// failures; an error is surfaced to the model as ordinary tool output.
type Toolbox struct {
	provider  WebProvider
	formatter Formatter
	opts      ToolboxOptions
	logger    *log.Logger
}

// NewToolbox builds a toolbox. Zero option fields fall back to the provider
// defaults used by the original research runtime.
func NewToolbox(provider WebProvider, formatter Formatter, opts ToolboxOptions, logger *log.Logger) *Toolbox {
	if opts.SearchMaxResults <= 0 {
		opts.SearchMaxResults = 10
	}
	if opts.CrawlMaxDepth <= 0 {
		opts.CrawlMaxDepth = 2
	}
	if opts.CrawlLimit <= 0 {
		opts.CrawlLimit = 20
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[TOOLS] ", log.LstdFlags)
	}
	return &Toolbox{provider: provider, formatter: formatter, opts: opts, logger: logger}
}

// Search performs a web search and formats the ranked results.
func (t *Toolbox) Search(ctx context.Context, query, timeRange string, includeDomains []string) string {
	resp, err := t.provider.Search(ctx, tavily.SearchRequest{
		Query:          query,
		MaxResults:     t.opts.SearchMaxResults,
		TimeRange:      timeRange,
		IncludeDomains: includeDomains,
	})
	if err != nil {
		t.logger.Printf("web_search failed: %v", err)
		return fmt.Sprintf("Error: %v\nQuery attempted: %s\nFailed to search the web.", err, query)
	}
	return FormatSearchResults(resp)
}

// Extract pulls content from one or more URLs and formats it.
func (t *Toolbox) Extract(ctx context.Context, urls []string, includeImages bool, extractDepth string) string {
	if extractDepth == "" {
		extractDepth = "basic"
	}

	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		cleaned = append(cleaned, cleanURL(u))
	}

	resp, err := t.provider.Extract(ctx, tavily.ExtractRequest{
		URLs:          cleaned,
		IncludeImages: includeImages,
		ExtractDepth:  extractDepth,
	})
	if err != nil {
		t.logger.Printf("web_extract failed: %v", err)
		return fmt.Sprintf("Error during extraction: %v\nURLs attempted: %v\nFailed to extract content.", err, urls)
	}
	return FormatExtractResults(resp)
}

// Crawl walks nested links from a base URL and formats the discovered pages.
func (t *Toolbox) Crawl(ctx context.Context, url, instructions string) string {
	cleaned := cleanURL(url)

	resp, err := t.provider.Crawl(ctx, tavily.CrawlRequest{
		URL:          cleaned,
		MaxDepth:     t.opts.CrawlMaxDepth,
		Limit:        t.opts.CrawlLimit,
		Instructions: instructions,
	})
	if err != nil {
		t.logger.Printf("web_crawl failed: %v", err)
		return fmt.Sprintf("Error: %v\nURL attempted: %s\nFailed to crawl the website.", err, cleaned)
	}

	var results []tavily.CrawlResult
	if resp != nil {
		results = resp.Results
	}
	return FormatCrawlResults(results)
}

// FormatResponse runs the formatter sub-agent over accumulated research
// content.
func (t *Toolbox) FormatResponse(ctx context.Context, researchContent, formatStyle, userQuery string) string {
	out, err := t.formatter.Format(ctx, researchContent, formatStyle, userQuery)
	if err != nil {
		t.logger.Printf("format_research_response failed: %v", err)
		return fmt.Sprintf("Error in research formatting: %v", err)
	}
	return out
}

var jsonURLPattern = regexp.MustCompile(`"url"\s*:\s*"([^"]+)"`)

// cleanURL defends against malformed tool-call arguments: a JSON fragment
// carrying a "url" key is unwrapped, and a missing scheme defaults to https.
func cleanURL(url string) string {
	if strings.HasPrefix(strings.TrimSpace(url), "{") && strings.Contains(url, `"url":`) {
		if m := jsonURLPattern.FindStringSubmatch(url); m != nil {
			url = m[1]
		}
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url
}
