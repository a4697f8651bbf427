package api

import (
	"errors"
	"net/http"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/parley/internal/chat"
	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/session"
	"github.com/koopa0/parley/internal/tools"
)

// ServerConfig wires the API server's collaborators.
type ServerConfig struct {
	Assistant responder       // Required
	Sessions  *session.Store  // Required
	Registry  *tools.Registry // Required
	Flow      *chat.Flow      // Optional: nil disables the genkit flow route
	Knowledge knowledgeIndex  // Optional: nil disables knowledge routes
	Crawler   urlIngester     // Optional: nil disables URL ingestion
	Uploads   uploadSaver     // Optional: upload validation only when nil
	Pool      *pgxpool.Pool   // Optional: nil skips the database readiness ping

	CORSOrigins []string // Allowed origins for CORS
	TrustProxy  bool     // Trust X-Real-IP/X-Forwarded-For for rate limiting
	RateRPS     float64  // Sustained requests per second per IP (0 = default 1)
	RateBurst   int      // Rate limiter burst per IP (0 = default 60)

	Logger log.Logger
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	logger := cfg.Logger

	ch := &chatHandler{assistant: cfg.Assistant, logger: logger}
	kh := &knowledgeHandler{index: cfg.Knowledge, crawler: cfg.Crawler, uploads: cfg.Uploads, logger: logger}
	th := &toolsHandler{registry: cfg.Registry, logger: logger}
	sh := &sessionHandler{store: cfg.Sessions, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("POST /api/v1/chat/stream", ch.stream)

	// Genkit wire format for the same pipeline, usable by genkit tooling.
	if cfg.Flow != nil {
		mux.Handle("POST /api/v1/flow/chat", genkit.Handler(cfg.Flow))
	}

	mux.HandleFunc("GET /api/v1/knowledge/documents", kh.list)
	mux.HandleFunc("POST /api/v1/knowledge/documents", kh.create)
	mux.HandleFunc("POST /api/v1/knowledge/documents/url", kh.createFromURL)
	mux.HandleFunc("DELETE /api/v1/knowledge/documents/{name}", kh.remove)
	mux.HandleFunc("GET /api/v1/knowledge/search", kh.search)

	mux.HandleFunc("GET /api/v1/tools", th.list)
	mux.HandleFunc("POST /api/v1/tools/{name}", th.invoke)

	mux.HandleFunc("GET /api/v1/sessions", sh.list)
	mux.HandleFunc("GET /api/v1/sessions/{id}/messages", sh.messages)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/messages", sh.clear)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", sh.remove)

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 1.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(rps, burst)

	// Middleware stack, outermost first. RequestID comes before Logging
	// so request_id is available as a log attribute; CORS before
	// RateLimit so preflight OPTIONS gets proper headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	top := http.NewServeMux()
	top.HandleFunc("GET /health", health(logger))
	top.HandleFunc("GET /ready", ready(cfg.Pool, logger))
	top.Handle("/", handler)

	return &Server{mux: top}, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
