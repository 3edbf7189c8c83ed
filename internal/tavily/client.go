// Package tavily is a minimal client for the Tavily web search, extract and
// crawl APIs. Only the fields the research agent consumes are modelled.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.tavily.com"

// Client talks to the Tavily HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Tavily client. baseURL may be empty to use the public API.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SearchRequest describes a web search call.
type SearchRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	TimeRange      string   `json:"time_range,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// SearchResult is a single ranked document from a search response.
type SearchResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
}

// SearchResponse is the body returned by /search.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

// ExtractRequest describes a page extraction call.
type ExtractRequest struct {
	URLs          []string `json:"urls"`
	IncludeImages bool     `json:"include_images,omitempty"`
	ExtractDepth  string   `json:"extract_depth,omitempty"`
}

// ExtractResult is a successfully extracted page.
type ExtractResult struct {
	URL        string   `json:"url"`
	RawContent string   `json:"raw_content"`
	Images     []string `json:"images"`
}

// FailedResult records a URL the provider could not extract.
type FailedResult struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ExtractResponse is the body returned by /extract.
type ExtractResponse struct {
	Results       []ExtractResult `json:"results"`
	FailedResults []FailedResult  `json:"failed_results"`
	ResponseTime  float64         `json:"response_time"`
}

// CrawlRequest describes a site crawl call.
type CrawlRequest struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// CrawlResult is a single page discovered by a crawl.
type CrawlResult struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

// CrawlResponse is the body returned by /crawl.
type CrawlResponse struct {
	Results      []CrawlResult `json:"results"`
	ResponseTime float64       `json:"response_time"`
}

// Search runs a web search ranked by semantic relevance.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.post(ctx, "/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Extract pulls page content for one or more URLs.
func (c *Client) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	var out ExtractResponse
	if err := c.post(ctx, "/extract", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Crawl walks nested links starting from a base URL.
func (c *Client) Crawl(ctx context.Context, req CrawlRequest) (*CrawlResponse, error) {
	var out CrawlResponse
	if err := c.post(ctx, "/crawl", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tavily %s returned status %d: %s", path, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
