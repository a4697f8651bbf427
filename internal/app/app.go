// Package app builds and tears down the application: configuration,
// logging, tracing, database, model client, knowledge index, tools, and
// the assistant, wired in dependency order.
package app

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/parley/internal/agent"
	"github.com/koopa0/parley/internal/chat"
	"github.com/koopa0/parley/internal/config"
	"github.com/koopa0/parley/internal/knowledge"
	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/session"
	"github.com/koopa0/parley/internal/tools"
)

// App is the application container. Fields are nil when the matching
// feature is disabled (Knowledge and Crawler without Postgres).
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Pool      *pgxpool.Pool
	Sessions  *session.Store
	Registry  *tools.Registry
	Executor  *agent.Executor
	Knowledge *knowledge.Index
	Crawler   *knowledge.Crawler
	Uploads   *knowledge.Uploads
	Model     *chat.Client
	Assistant *chat.Assistant
	Flow      *chat.Flow

	otelShutdown func(context.Context) error
}

// Close releases resources in reverse construction order.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Debug("database pool closed")
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Logger.Warn("shutting down tracer provider", "error", err)
		}
	}
	return nil
}
