package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/koopa0/parley/internal/log"
)

// ToolWebSearch is the wire name of the web search tool.
const ToolWebSearch = "web_search"

// Search result bounds.
const (
	defaultSearchLimit = 5
	maxSearchLimit     = 10
)

// WebSearchInput defines input for the web_search tool.
type WebSearchInput struct {
	Query string `json:"query" jsonschema_description:"Search query"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum results (1-10, default 5)"`
}

// SearchResult is one parsed search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearchConfig holds the search collaborator settings.
type WebSearchConfig struct {
	// BaseURL of the HTML search endpoint (DuckDuckGo HTML by default).
	BaseURL string
}

// NewWebSearch creates the web search tool. Results are scraped from the
// HTML endpoint and parsed with goquery; the SSRF validator vets the
// endpoint like any other outbound URL.
func NewWebSearch(cfg WebSearchConfig, httpVal httpValidator, logger log.Logger) (*ExecutableTool, error) {
	if httpVal == nil {
		return nil, fmt.Errorf("http validator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://html.duckduckgo.com/html/"
	}

	handler := func(ctx context.Context, input WebSearchInput) Result {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return Errorf(ErrCodeInvalidInput, "query is empty")
		}

		limit := input.Limit
		if limit <= 0 {
			limit = defaultSearchLimit
		}
		if limit > maxSearchLimit {
			limit = maxSearchLimit
		}

		reqURL := cfg.BaseURL + "?q=" + url.QueryEscape(query)
		if err := httpVal.ValidateURL(reqURL); err != nil {
			return Errorf(ErrCodeSecurity, fmt.Sprintf("search endpoint rejected: %v", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("building request: %v", err))
		}
		req.Header.Set("User-Agent", "parley/1.0")

		resp, err := httpVal.Client().Do(req)
		if err != nil {
			logger.Warn("search request failed", "query", query, "error", err)
			return Errorf(ErrCodeExecution, fmt.Sprintf("search service unreachable: %v", err))
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return Errorf(ErrCodeExecution, fmt.Sprintf("search service returned status %d", resp.StatusCode))
		}

		results, err := parseSearchResults(io.LimitReader(resp.Body, httpVal.MaxResponseSize()), limit)
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("parsing search results: %v", err))
		}

		logger.Info("web search succeeded", "query", query, "results", len(results))
		return Result{
			Status:  StatusSuccess,
			Message: summarizeResults(query, results),
			Data: map[string]any{
				"query":   query,
				"results": results,
			},
		}
	}

	return NewTool(ToolWebSearch,
		"Search the web and return titles, URLs, and snippets of the top results.",
		handler)
}

// parseSearchResults extracts results from a DuckDuckGo HTML results page.
func parseSearchResults(r io.Reader, limit int) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var results []SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find(".result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		if title == "" || href == "" {
			return true
		}
		results = append(results, SearchResult{
			Title:   title,
			URL:     cleanResultURL(href),
			Snippet: snippet,
		})
		return len(results) < limit
	})

	return results, nil
}

// cleanResultURL unwraps DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=<target>).
func cleanResultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}
	return href
}

func summarizeResults(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("no results for %q", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "top %d results for %q:", len(results), query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s - %s", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, " (%s)", r.Snippet)
		}
	}
	return b.String()
}
