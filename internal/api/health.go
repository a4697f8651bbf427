package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/parley/internal/log"
)

// health answers liveness probes.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// ready answers readiness probes. With a pool configured it pings the
// database; a failing ping reports 503 so load balancers stop routing.
func ready(pool *pgxpool.Pool, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				logger.Warn("readiness ping failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"}, logger)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
