package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/koopa0/parley/internal/app"
	"github.com/koopa0/parley/internal/filter"
)

// runIngest adds a local file or a web page to the knowledge base.
func runIngest(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: parley ingest <path|url>")
	}
	if a.Knowledge == nil {
		return fmt.Errorf("knowledge base unavailable: PostgreSQL is not reachable")
	}

	target := args[0]
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return ingestURL(ctx, a, target)
	}
	return ingestFile(ctx, a, target)
}

func ingestURL(ctx context.Context, a *app.App, rawURL string) error {
	name, chunks, err := a.Crawler.IngestURL(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", rawURL, err)
	}
	fmt.Printf("Ingested %q: %d chunks indexed\n", name, chunks)
	return nil
}

func ingestFile(ctx context.Context, a *app.App, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	if err := filter.ValidateUpload(name, data); err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}

	chunks, err := a.Knowledge.Ingest(ctx, name, string(data), "")
	if err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}
	fmt.Printf("Ingested %q: %d chunks indexed\n", name, chunks)
	return nil
}
