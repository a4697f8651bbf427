// Package cmd contains the Parley command line interface: a hand-rolled
// command dispatch with no framework, following the pattern of kubectl
// and hugo where main.go stays a minimal entry point.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/koopa0/parley/internal/app"
	"github.com/koopa0/parley/internal/config"
	"github.com/koopa0/parley/internal/log"
)

// Version information, injected at build time via ldflags.
var (
	AppVersion = "0.0.1"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the CLI entry point: flag-free command routing over
// os.Args. Version and help work even when configuration is invalid.
func Execute() error {
	command := "chat"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "version", "--version", "-v":
		printVersion()
		return nil
	case "help", "--help", "-h":
		printHelp()
		return nil
	}

	logger := initLogger()
	slog.SetDefault(logger)

	// Checked before Load so the friendly instructions win over the
	// validation error.
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing application", "error", err)
		}
	}()

	switch command {
	case "chat":
		return runChat(ctx, a)
	case "ask":
		return runAsk(ctx, a, os.Args[2:])
	case "serve":
		return runServe(ctx, a)
	case "ingest":
		return runIngest(ctx, a, os.Args[2:])
	case "sessions":
		return runSessions(a)
	case "mcp":
		return runMCP(ctx, a)
	default:
		printHelp()
		return fmt.Errorf("unknown command %q", command)
	}
}

// initLogger builds the process logger. DEBUG in the environment lowers
// the level; output goes to stderr so MCP stdio stays clean for JSON-RPC.
func initLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.New(cfg)
}

// checkRequiredEnv verifies the model API key is present, with setup
// instructions when it is not.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Parley requires a Gemini API key to function.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}

func printVersion() {
	fmt.Printf("Parley v%s\n", AppVersion)
	fmt.Printf("Build: %s\n", BuildTime)
	fmt.Printf("Commit: %s\n", GitCommit)
}

func printHelp() {
	fmt.Print(`Parley - AI chatbot with knowledge base, tools, and agent personas

Usage:
  parley [command] [arguments]

Commands:
  chat               Interactive conversation (default)
  ask "question"     One-shot question, rendered answer
  serve [--addr]     Start the HTTP API server
  ingest <path|url>  Add a document or web page to the knowledge base
  sessions           List conversation sessions
  mcp                Serve tools over MCP stdio
  version            Print version information
  help               Show this help

Environment:
  GEMINI_API_KEY     Gemini API key (required)
  DEBUG              Enable debug logging when set
`)
}
