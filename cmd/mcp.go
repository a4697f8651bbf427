package cmd

import (
	"context"
	"fmt"

	"github.com/koopa0/parley/internal/app"
	"github.com/koopa0/parley/internal/mcp"
)

// runMCP exposes the tool registry over MCP stdio. Stdout carries
// JSON-RPC framing; all logging already goes to stderr.
func runMCP(ctx context.Context, a *app.App) error {
	server, err := mcp.NewServer(mcp.Config{
		Name:    "parley",
		Version: AppVersion,
	}, a.Registry, a.Logger)
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	a.Logger.Info("MCP server started on stdio")
	if err := server.RunStdio(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running MCP server: %w", err)
	}
	return nil
}
