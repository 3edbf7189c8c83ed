package research

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/astroamber/amber/internal/tavily"
)

const (
	extractContentLimit = 5000
	crawlContentLimit   = 4000
	maxImagesListed     = 3
)

// FormatSearchResults renders a search response into a text block the model
// can consume. Raw content is preferred over the snippet when it carries
// anything beyond whitespace.
func FormatSearchResults(resp *tavily.SearchResponse) string {
	if resp == nil || len(resp.Results) == 0 {
		return "No search results found."
	}

	blocks := make([]string, 0, len(resp.Results))
	for i, doc := range resp.Results {
		title := doc.Title
		if title == "" {
			title = "No title"
		}
		url := doc.URL
		if url == "" {
			url = "No URL"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "\nRESULT %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", title)
		fmt.Fprintf(&b, "URL: %s\n", url)

		if raw := strings.TrimSpace(doc.RawContent); raw != "" {
			fmt.Fprintf(&b, "Raw Content: %s\n", raw)
		} else {
			fmt.Fprintf(&b, "Content: %s\n", strings.TrimSpace(doc.Content))
		}
		blocks = append(blocks, b.String())
	}

	return "\n" + strings.Join(blocks, "\n")
}

// FormatExtractResults renders an extract response, including failed URLs and
// the provider's reported response time.
func FormatExtractResults(resp *tavily.ExtractResponse) string {
	if resp == nil {
		return "No extract results found."
	}

	var parts []string
	for i, doc := range resp.Results {
		url := doc.URL
		if url == "" {
			url = "No URL"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "\nEXTRACT RESULT %d:\n", i+1)
		fmt.Fprintf(&b, "URL: %s\n", url)

		if doc.RawContent != "" {
			fmt.Fprintf(&b, "Content: %s\n", truncate(doc.RawContent, extractContentLimit))
		} else {
			b.WriteString("Content: No content extracted\n")
		}

		if len(doc.Images) > 0 {
			fmt.Fprintf(&b, "Images found: %d images\n", len(doc.Images))
			for j, imageURL := range doc.Images {
				if j >= maxImagesListed {
					break
				}
				fmt.Fprintf(&b, "  Image %d: %s\n", j+1, imageURL)
			}
			if extra := len(doc.Images) - maxImagesListed; extra > 0 {
				fmt.Fprintf(&b, "  ... and %d more images\n", extra)
			}
		}
		parts = append(parts, b.String())
	}

	if len(resp.FailedResults) > 0 {
		parts = append(parts, "\nFAILED EXTRACTIONS:\n")
		for i, failure := range resp.FailedResults {
			url := failure.URL
			if url == "" {
				url = "Unknown URL"
			}
			errMsg := failure.Error
			if errMsg == "" {
				errMsg = "Unknown error"
			}
			parts = append(parts, fmt.Sprintf("Failed %d: %s - %s\n", i+1, url, errMsg))
		}
	}

	parts = append(parts, fmt.Sprintf("\nResponse time: %v seconds", resp.ResponseTime))

	return "\n" + strings.Join(parts, "")
}

// FormatCrawlResults renders crawled pages. The title of each page is derived
// from the first line of its raw content.
func FormatCrawlResults(results []tavily.CrawlResult) string {
	if len(results) == 0 {
		return "No crawl results found."
	}

	blocks := make([]string, 0, len(results))
	for i, doc := range results {
		url := doc.URL
		if url == "" {
			url = "No URL"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "\nRESULT %d:\n", i+1)
		fmt.Fprintf(&b, "URL: %s\n", url)

		if doc.RawContent != "" {
			titleLine, _, _ := strings.Cut(doc.RawContent, "\n")
			fmt.Fprintf(&b, "Title: %s\n", titleLine)
			fmt.Fprintf(&b, "Content: %s\n", truncate(doc.RawContent, crawlContentLimit))
		}
		blocks = append(blocks, b.String())
	}

	return "\n" + strings.Repeat("-", 40) + strings.Join(blocks, "\n")
}

// truncate caps s at limit bytes, appending an ellipsis marker. The marker
// does not count against the limit. The cut never splits a rune, so truncated
// web content stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
