// Package mcp serves the tool registry over the Model Context Protocol,
// so external MCP clients (editors, agent frameworks) can call Parley's
// tools through stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/tools"
)

// Config holds MCP server settings.
type Config struct {
	Name    string
	Version string
}

// Server exposes every registry tool as an MCP tool.
type Server struct {
	mcpServer *mcp.Server
	registry  *tools.Registry
	logger    log.Logger
}

// NewServer creates the MCP server and registers the registry's tools.
func NewServer(cfg Config, registry *tools.Registry, logger log.Logger) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		registry: registry,
		logger:   logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP on the given transport. Blocking; returns when the
// client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// RunStdio serves MCP on stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// registerTools mirrors the registry into the MCP server. The registry's
// jsonschema input schemas carry over unchanged; arguments round-trip
// through JSON into Registry.Invoke.
func (s *Server) registerTools() {
	for _, spec := range s.registry.List() {
		name := spec.Name
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
		}, func(ctx context.Context, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
			return s.invoke(ctx, name, args)
		})
	}
	s.logger.Debug("registered MCP tools", "count", len(s.registry.List()))
}

// invoke runs one registry tool and maps its result to MCP content.
// Tool-level failures become IsError text results, never protocol errors,
// so clients see the taxonomy instead of a broken call.
func (s *Server) invoke(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, any, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding arguments: %w", err)
	}

	inv := s.registry.Invoke(ctx, name, payload)
	if inv.Result.Status == tools.StatusError {
		text := inv.Text()
		if inv.Result.Error != nil {
			text = fmt.Sprintf("Error [%s]: %s", inv.Result.Error.Code, inv.Result.Error.Message)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
			IsError: true,
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: inv.Text()}},
	}, inv.Result.Data, nil
}
