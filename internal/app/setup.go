package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/koopa0/parley/db"
	"github.com/koopa0/parley/internal/agent"
	"github.com/koopa0/parley/internal/chat"
	"github.com/koopa0/parley/internal/config"
	"github.com/koopa0/parley/internal/database"
	"github.com/koopa0/parley/internal/filter"
	"github.com/koopa0/parley/internal/knowledge"
	"github.com/koopa0/parley/internal/language"
	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/observability"
	"github.com/koopa0/parley/internal/security"
	"github.com/koopa0/parley/internal/session"
	"github.com/koopa0/parley/internal/tools"
)

// Setup builds the application from configuration. On failure everything
// already initialized is released before the error returns.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelShutdown = shutdown

	// Tracing first so genkit's TracerProvider is ready at Init.
	a.Genkit = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if a.Genkit == nil {
		return nil, errors.New("initializing genkit")
	}

	a.Model, err = chat.NewClient(ctx, modelClientConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	a.Sessions, err = session.NewStore(session.Config{
		Window:      cfg.MemoryWindow,
		MaxSessions: cfg.MaxSessions,
		DefaultID:   cfg.SessionID,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	translator, err := language.NewLLMTranslator(a.Model, 0, logger)
	if err != nil {
		return nil, fmt.Errorf("creating translator: %w", err)
	}
	moderator, err := filter.NewLLMModerator(a.Model, 0, logger)
	if err != nil {
		return nil, fmt.Errorf("creating moderator: %w", err)
	}

	if err := a.setupKnowledge(ctx, translator); err != nil {
		return nil, err
	}
	if err := a.setupTools(); err != nil {
		return nil, err
	}

	a.Executor, err = agent.NewExecutor(a.Registry, logger)
	if err != nil {
		return nil, fmt.Errorf("creating agent executor: %w", err)
	}

	assistantCfg := chat.Config{
		Sessions:   a.Sessions,
		Registry:   a.Registry,
		Executor:   a.Executor,
		Generator:  a.Model,
		Moderator:  moderator,
		Translator: translator,
		TopK:       cfg.RetrievalTopK,
		Logger:     logger,
	}
	if a.Knowledge != nil {
		assistantCfg.Knowledge = a.Knowledge
	}
	a.Assistant, err = chat.NewAssistant(assistantCfg)
	if err != nil {
		return nil, fmt.Errorf("creating assistant: %w", err)
	}
	a.Flow = chat.NewFlow(a.Genkit, a.Assistant)

	return a, nil
}

// modelClientConfig maps the viper-level resilience settings onto the chat
// client. Retry intervals stay at the client defaults; only the retry count
// is operator-tunable.
func modelClientConfig(cfg *config.Config) chat.ClientConfig {
	retry := chat.DefaultRetryConfig()
	retry.MaxRetries = cfg.ModelMaxRetries

	return chat.ClientConfig{
		APIKey:            os.Getenv("GEMINI_API_KEY"),
		Model:             cfg.ModelName,
		Temperature:       cfg.Temperature,
		Timeout:           time.Duration(cfg.ModelTimeoutSec) * time.Second,
		Retry:             retry,
		Breaker:           chat.CircuitBreakerConfig{FailureThreshold: cfg.BreakerThreshold},
		RequestsPerSecond: cfg.ModelRPS,
		Burst:             cfg.ModelBurst,
	}
}

// setupKnowledge connects Postgres, runs migrations, and builds the
// knowledge index. An unreachable database is a degraded mode, not a
// startup failure: the assistant runs with knowledge disabled.
func (a *App) setupKnowledge(ctx context.Context, translator knowledge.Translator) error {
	cfg := a.Config

	pool, err := database.Connect(ctx, cfg.ConnString())
	if err != nil {
		a.Logger.Warn("database unreachable, knowledge base disabled", "error", err)
		return nil
	}

	if err := db.Migrate(cfg.ConnString(), a.Logger); err != nil {
		pool.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	a.Pool = pool

	embedder := googlegenai.GoogleAIEmbedder(a.Genkit, cfg.EmbedderModel)
	if embedder == nil {
		return fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	genkitEmbedder, err := knowledge.NewGenkitEmbedder(embedder)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	a.Knowledge, err = knowledge.NewIndex(pool, genkitEmbedder, translator,
		knowledge.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap), a.Logger)
	if err != nil {
		return fmt.Errorf("creating knowledge index: %w", err)
	}

	a.Crawler, err = knowledge.NewCrawler(a.Knowledge, security.NewHTTP(), a.Logger)
	if err != nil {
		return fmt.Errorf("creating crawler: %w", err)
	}

	uploadsDir := cfg.UploadsDir
	if uploadsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving uploads directory: %w", err)
		}
		uploadsDir = filepath.Join(home, ".parley", "uploads")
	}
	a.Uploads, err = knowledge.NewUploads(uploadsDir, a.Logger)
	if err != nil {
		return fmt.Errorf("creating uploads store: %w", err)
	}

	return nil
}

// setupTools builds the registry. query_data joins only when the pool is
// up; weather and stock register regardless and report themselves
// unavailable without keys.
func (a *App) setupTools() error {
	cfg := a.Config
	logger := a.Logger

	registry, err := tools.NewRegistry(time.Duration(cfg.ToolTimeoutSec)*time.Second, logger)
	if err != nil {
		return fmt.Errorf("creating tool registry: %w", err)
	}

	httpVal := security.NewHTTP()
	pathVal, err := security.NewPath(cfg.ToolsRoot)
	if err != nil {
		return fmt.Errorf("creating path validator: %w", err)
	}

	fileReader, err := tools.NewFileReader(pathVal, logger)
	if err != nil {
		return fmt.Errorf("creating file reader: %w", err)
	}
	weather, err := tools.NewWeather(tools.WeatherConfig{APIKey: cfg.WeatherAPIKey}, httpVal, logger)
	if err != nil {
		return fmt.Errorf("creating weather tool: %w", err)
	}
	stock, err := tools.NewStock(tools.StockConfig{APIKey: cfg.StockAPIKey}, httpVal, logger)
	if err != nil {
		return fmt.Errorf("creating stock tool: %w", err)
	}
	search, err := tools.NewWebSearch(tools.WebSearchConfig{BaseURL: cfg.SearchBaseURL}, httpVal, logger)
	if err != nil {
		return fmt.Errorf("creating web search tool: %w", err)
	}

	for _, t := range []tools.Tool{
		tools.NewCalculator(), fileReader, weather, stock, search,
	} {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("registering %s: %w", t.Name(), err)
		}
	}

	if a.Pool != nil {
		dataQuery, err := tools.NewDataQuery(a.Pool, logger)
		if err != nil {
			return fmt.Errorf("creating data query tool: %w", err)
		}
		if err := registry.Register(dataQuery); err != nil {
			return fmt.Errorf("registering query_data: %w", err)
		}
	}

	a.Registry = registry
	return nil
}
