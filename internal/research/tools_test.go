package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/astroamber/amber/internal/tavily"
)

type fakeProvider struct {
	searchReq  *tavily.SearchRequest
	extractReq *tavily.ExtractRequest
	crawlReq   *tavily.CrawlRequest

	searchResp  *tavily.SearchResponse
	extractResp *tavily.ExtractResponse
	crawlResp   *tavily.CrawlResponse
	err         error
}

func (f *fakeProvider) Search(_ context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error) {
	f.searchReq = &req
	return f.searchResp, f.err
}

func (f *fakeProvider) Extract(_ context.Context, req tavily.ExtractRequest) (*tavily.ExtractResponse, error) {
	f.extractReq = &req
	return f.extractResp, f.err
}

func (f *fakeProvider) Crawl(_ context.Context, req tavily.CrawlRequest) (*tavily.CrawlResponse, error) {
	f.crawlReq = &req
	return f.crawlResp, f.err
}

type fakeFormatter struct {
	out string
	err error
}

func (f *fakeFormatter) Format(context.Context, string, string, string) (string, error) {
	return f.out, f.err
}

func TestCleanURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"https://example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{`{"url": "https://wrapped.example/page"}`, "https://wrapped.example/page"},
		{`  {"url":"wrapped.example"}`, "https://wrapped.example"},
	}
	for _, tc := range cases {
		if got := cleanURL(tc.in); got != tc.want {
			t.Fatalf("cleanURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSearchAdapterFormatsResults(t *testing.T) {
	provider := &fakeProvider{searchResp: &tavily.SearchResponse{Results: []tavily.SearchResult{
		{Title: "Doc", URL: "https://doc.example", Content: "snippet"},
	}}}
	tb := NewToolbox(provider, &fakeFormatter{}, ToolboxOptions{SearchMaxResults: 5}, nil)

	out := tb.Search(context.Background(), "go concurrency", "w", []string{"go.dev"})
	if !strings.Contains(out, "Title: Doc") {
		t.Fatalf("unexpected output: %q", out)
	}
	if provider.searchReq.MaxResults != 5 || provider.searchReq.TimeRange != "w" {
		t.Fatalf("request not forwarded: %+v", provider.searchReq)
	}
	if len(provider.searchReq.IncludeDomains) != 1 || provider.searchReq.IncludeDomains[0] != "go.dev" {
		t.Fatalf("domains not forwarded: %+v", provider.searchReq)
	}
}

func TestSearchAdapterAbsorbsFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	tb := NewToolbox(provider, &fakeFormatter{}, ToolboxOptions{}, nil)

	out := tb.Search(context.Background(), "query", "", nil)
	if !strings.HasPrefix(out, "Error: boom\n") {
		t.Fatalf("unexpected error text: %q", out)
	}
	if !strings.Contains(out, "Query attempted: query\n") || !strings.HasSuffix(out, "Failed to search the web.") {
		t.Fatalf("unexpected error text: %q", out)
	}
}

func TestExtractAdapterNormalizesURLs(t *testing.T) {
	provider := &fakeProvider{extractResp: &tavily.ExtractResponse{}}
	tb := NewToolbox(provider, &fakeFormatter{}, ToolboxOptions{}, nil)

	tb.Extract(context.Background(), []string{"example.com", `{"url": "https://ok.example"}`}, false, "")
	got := provider.extractReq.URLs
	if len(got) != 2 || got[0] != "https://example.com" || got[1] != "https://ok.example" {
		t.Fatalf("urls not normalized: %v", got)
	}
	if provider.extractReq.ExtractDepth != "basic" {
		t.Fatalf("expected basic depth default, got %q", provider.extractReq.ExtractDepth)
	}
}

func TestExtractAdapterAbsorbsFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("network down")}
	tb := NewToolbox(provider, &fakeFormatter{}, ToolboxOptions{}, nil)

	out := tb.Extract(context.Background(), []string{"https://a.example"}, false, "basic")
	if !strings.HasPrefix(out, "Error during extraction: network down\n") {
		t.Fatalf("unexpected error text: %q", out)
	}
	if !strings.HasSuffix(out, "Failed to extract content.") {
		t.Fatalf("unexpected error text: %q", out)
	}
}

func TestCrawlAdapterNormalizesAndForwardsLimits(t *testing.T) {
	provider := &fakeProvider{crawlResp: &tavily.CrawlResponse{Results: []tavily.CrawlResult{
		{URL: "https://example.com/a", RawContent: "Title A\nbody"},
	}}}
	tb := NewToolbox(provider, &fakeFormatter{}, ToolboxOptions{CrawlMaxDepth: 3, CrawlLimit: 7}, nil)

	out := tb.Crawl(context.Background(), "example.com", "focus on docs")
	if provider.crawlReq.URL != "https://example.com" {
		t.Fatalf("scheme not prepended: %q", provider.crawlReq.URL)
	}
	if provider.crawlReq.MaxDepth != 3 || provider.crawlReq.Limit != 7 {
		t.Fatalf("limits not forwarded: %+v", provider.crawlReq)
	}
	if provider.crawlReq.Instructions != "focus on docs" {
		t.Fatalf("instructions not forwarded: %+v", provider.crawlReq)
	}
	if !strings.Contains(out, "Title: Title A") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCrawlAdapterAbsorbsFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("dns failure")}
	tb := NewToolbox(provider, &fakeFormatter{}, ToolboxOptions{}, nil)

	out := tb.Crawl(context.Background(), "bad.example", "")
	if !strings.HasPrefix(out, "Error: dns failure\n") {
		t.Fatalf("unexpected error text: %q", out)
	}
	if !strings.Contains(out, "URL attempted: https://bad.example\n") || !strings.HasSuffix(out, "Failed to crawl the website.") {
		t.Fatalf("unexpected error text: %q", out)
	}
}

func TestFormatAdapterAbsorbsFailure(t *testing.T) {
	tb := NewToolbox(&fakeProvider{}, &fakeFormatter{err: errors.New("model unavailable")}, ToolboxOptions{}, nil)

	out := tb.FormatResponse(context.Background(), "content", "", "")
	if out != "Error in research formatting: model unavailable" {
		t.Fatalf("unexpected error text: %q", out)
	}
}

func TestToolCategories(t *testing.T) {
	cases := map[string]string{
		ToolWebCrawl:   "spider",
		ToolWebSearch:  "search",
		ToolFormat:     "document",
		ToolWebExtract: "page",
		"calculator":   "tool",
	}
	for name, want := range cases {
		if got := toolCategory(name); got != want {
			t.Fatalf("toolCategory(%q) = %q, want %q", name, got, want)
		}
	}
}
