package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/koopa0/parley/internal/api"
	"github.com/koopa0/parley/internal/app"
)

// runServe starts the HTTP API server and blocks until the context is
// cancelled, then shuts down gracefully.
func runServe(ctx context.Context, a *app.App) error {
	addr, err := serveAddr(os.Args[2:])
	if err != nil {
		return err
	}

	serverCfg := api.ServerConfig{
		Assistant:   a.Assistant,
		Sessions:    a.Sessions,
		Registry:    a.Registry,
		Flow:        a.Flow,
		Pool:        a.Pool,
		CORSOrigins: a.Config.CORSOrigins,
		TrustProxy:  a.Config.TrustProxy,
		RateRPS:     a.Config.RateLimitRPS,
		RateBurst:   a.Config.RateBurst,
		Logger:      a.Logger,
	}
	// Typed-nil guard: the knowledge fields stay nil interfaces when the
	// database is down so the API reports knowledge_disabled.
	if a.Knowledge != nil {
		serverCfg.Knowledge = a.Knowledge
	}
	if a.Crawler != nil {
		serverCfg.Crawler = a.Crawler
	}
	if a.Uploads != nil {
		serverCfg.Uploads = a.Uploads
	}

	server, err := api.NewServer(serverCfg)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("API server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
