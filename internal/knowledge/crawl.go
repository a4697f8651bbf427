package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/koopa0/parley/internal/log"
)

// urlValidator vets outbound URLs before the crawler touches them.
type urlValidator interface {
	ValidateURL(url string) error
	MaxResponseSize() int64
}

// Crawler fetches a web page and ingests its readable article text.
type Crawler struct {
	index     *Index
	validator urlValidator
	logger    log.Logger
}

// NewCrawler creates a crawler feeding the given index.
func NewCrawler(index *Index, validator urlValidator, logger log.Logger) (*Crawler, error) {
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("url validator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Crawler{index: index, validator: validator, logger: logger}, nil
}

// IngestURL fetches rawURL, extracts the article text, and ingests it
// under a name derived from the page title (falling back to the URL
// path). Returns the document name and chunk count.
func (c *Crawler) IngestURL(ctx context.Context, rawURL string) (string, int, error) {
	if err := c.validator.ValidateURL(rawURL); err != nil {
		return "", 0, fmt.Errorf("url rejected: %w", err)
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, fmt.Errorf("parsing url: %w", err)
	}

	body, err := c.fetch(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", 0, fmt.Errorf("extracting article from %s: %w", rawURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", 0, fmt.Errorf("%w: no readable text at %s", ErrEmptyDocument, rawURL)
	}

	name := documentName(article.Title, pageURL)
	count, err := c.index.Ingest(ctx, name, text, "")
	if err != nil {
		return "", 0, err
	}

	c.logger.Info("url ingested", "url", rawURL, "name", name, "chunks", count)
	return name, count, nil
}

func (c *Crawler) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	collector := colly.NewCollector(
		colly.UserAgent("parley/1.0"),
		colly.MaxBodySize(int(c.validator.MaxResponseSize())),
	)
	collector.SetRequestTimeout(20 * time.Second)

	var body []byte
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnRequest(func(r *colly.Request) {
		if err := ctx.Err(); err != nil {
			r.Abort()
		}
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	collector.Wait()

	if len(body) == 0 {
		return nil, fmt.Errorf("empty response from %s", rawURL)
	}
	return body, nil
}

// documentName derives a stable document name from the page title, or
// the URL's host and path when the title is empty.
func documentName(title string, pageURL *url.URL) string {
	title = strings.TrimSpace(title)
	if title != "" {
		return title
	}
	name := pageURL.Host + pageURL.Path
	return strings.TrimSuffix(name, "/")
}
