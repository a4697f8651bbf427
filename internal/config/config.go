// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (PARLEY_* overrides, secrets)
//  2. Config file (~/.parley/config.yaml or ./config.yaml)
//  3. Default values
//
// Categories:
//   - AI: provider, model, temperature, max tokens, embedder
//   - Conversation: memory window, session cap, default session ID
//   - Knowledge: chunk size/overlap, retrieval top-k, uploads directory
//   - Tools: sandbox root, per-call timeout, collaborator endpoints and keys
//   - Storage: PostgreSQL connection for the knowledge index
//   - Serve: listen address concerns (CORS, proxy trust, rate limits)
//   - Observability: optional OTLP trace export
//
// Sensitive fields (passwords, API keys) are masked in MarshalJSON and
// String; validation is fail-fast with sentinel errors usable via errors.Is.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required model API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidModelTuning indicates a model resilience setting is out of range.
	ErrInvalidModelTuning = errors.New("invalid model tuning")

	// ErrInvalidMemoryWindow indicates the conversation window is out of range.
	ErrInvalidMemoryWindow = errors.New("invalid memory window")

	// ErrInvalidMaxSessions indicates the session cap is out of range.
	ErrInvalidMaxSessions = errors.New("invalid max sessions")

	// ErrInvalidChunkSize indicates the knowledge chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates the chunk overlap is out of range.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidToolTimeout indicates the tool timeout is out of range.
	ErrInvalidToolTimeout = errors.New("invalid tool timeout")

	// ErrInvalidToolsRoot indicates the file tool root directory is invalid.
	ErrInvalidToolsRoot = errors.New("invalid tools root directory")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidCORSOrigin indicates a CORS origin entry is malformed.
	ErrInvalidCORSOrigin = errors.New("invalid CORS origin")

	// ErrInvalidRateLimit indicates the API rate limit is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions via
	// OutputDimensionality; the pgvector schema uses vector(768).
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultMemoryWindow is the number of messages retained per session.
	DefaultMemoryWindow = 20

	// DefaultMaxSessions caps the number of in-memory sessions before the
	// least recently used one is evicted.
	DefaultMaxSessions = 1000

	// DefaultSessionID is used when a caller supplies no session ID.
	DefaultSessionID = "default"

	// DefaultChunkSize is the knowledge chunk size in runes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the rune overlap between adjacent chunks.
	DefaultChunkOverlap = 200

	// DefaultRetrievalTopK is the number of chunks returned per query.
	DefaultRetrievalTopK = 3

	// MaxUploadBytes is the size cap for ingested document uploads.
	MaxUploadBytes = 10 << 20
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON. When
// adding a new secret field, update MarshalJSON as well.
type Config struct {
	// AI provider and model configuration
	Provider    string  `mapstructure:"provider" json:"provider"`
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Model client resilience
	ModelTimeoutSec  int     `mapstructure:"model_timeout_sec" json:"model_timeout_sec"`
	ModelMaxRetries  int     `mapstructure:"model_max_retries" json:"model_max_retries"`
	ModelRPS         float64 `mapstructure:"model_rps" json:"model_rps"`
	ModelBurst       int     `mapstructure:"model_burst" json:"model_burst"`
	BreakerThreshold int     `mapstructure:"breaker_threshold" json:"breaker_threshold"`

	// Conversation memory
	MemoryWindow int    `mapstructure:"memory_window" json:"memory_window"`
	MaxSessions  int    `mapstructure:"max_sessions" json:"max_sessions"`
	SessionID    string `mapstructure:"session_id" json:"session_id"`

	// Knowledge index
	ChunkSize     int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap  int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	RetrievalTopK int    `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	UploadsDir    string `mapstructure:"uploads_dir" json:"uploads_dir"`

	// Tools
	ToolsRoot      string `mapstructure:"tools_root" json:"tools_root"`
	ToolTimeoutSec int    `mapstructure:"tool_timeout_sec" json:"tool_timeout_sec"`
	WeatherAPIKey  string `mapstructure:"weather_api_key" json:"weather_api_key"` // SENSITIVE: masked in MarshalJSON
	StockAPIKey    string `mapstructure:"stock_api_key" json:"stock_api_key"`     // SENSITIVE: masked in MarshalJSON
	SearchBaseURL  string `mapstructure:"search_base_url" json:"search_base_url"`

	// Storage (knowledge index persistence; optional)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Serve mode
	CORSOrigins  []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy   bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateLimitRPS float64  `mapstructure:"rate_limit_rps" json:"rate_limit_rps"`
	RateBurst    int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Observability (optional; empty endpoint disables tracing)
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".parley")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 2048)

	// Model resilience defaults (matching the chat client's fallbacks)
	v.SetDefault("model_timeout_sec", 60)
	v.SetDefault("model_max_retries", 3)
	v.SetDefault("model_rps", 10.0)
	v.SetDefault("model_burst", 30)
	v.SetDefault("breaker_threshold", 5)

	// Conversation defaults
	v.SetDefault("memory_window", DefaultMemoryWindow)
	v.SetDefault("max_sessions", DefaultMaxSessions)
	v.SetDefault("session_id", DefaultSessionID)

	// Knowledge defaults
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("retrieval_top_k", DefaultRetrievalTopK)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("uploads_dir", "")

	// Tool defaults
	v.SetDefault("tools_root", ".")
	v.SetDefault("tool_timeout_sec", 10)
	v.SetDefault("search_base_url", "https://html.duckduckgo.com/html/")

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "parley")
	v.SetDefault("postgres_password", "parley_dev_password")
	v.SetDefault("postgres_db_name", "parley")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Serve defaults
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_limit_rps", 5.0)
	v.SetDefault("rate_burst", 10)

	// Observability defaults
	v.SetDefault("otlp_endpoint", "")
	v.SetDefault("service_name", "parley")
}

// bindEnvVariables binds environment variable overrides explicitly.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via Viper;
// its presence is checked in Validate.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a programming bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "PARLEY_PROVIDER")
	mustBind("model_name", "PARLEY_MODEL_NAME")
	mustBind("tools_root", "PARLEY_TOOLS_ROOT")
	mustBind("uploads_dir", "PARLEY_UPLOADS_DIR")
	mustBind("search_base_url", "PARLEY_SEARCH_BASE_URL")

	mustBind("weather_api_key", "WEATHER_API_KEY")
	mustBind("stock_api_key", "STOCK_API_KEY")

	mustBind("postgres_host", "PARLEY_POSTGRES_HOST")
	mustBind("postgres_port", "PARLEY_POSTGRES_PORT")
	mustBind("postgres_user", "PARLEY_POSTGRES_USER")
	mustBind("postgres_password", "PARLEY_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "PARLEY_POSTGRES_DB")
	mustBind("postgres_ssl_mode", "PARLEY_POSTGRES_SSL_MODE")

	mustBind("cors_origins", "PARLEY_CORS_ORIGINS")
	mustBind("trust_proxy", "PARLEY_TRUST_PROXY")
	mustBind("rate_limit_rps", "PARLEY_RATE_LIMIT_RPS")
	mustBind("rate_burst", "PARLEY_RATE_BURST")

	mustBind("otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// ConnString returns the PostgreSQL connection string for the knowledge
// index.
func (c *Config) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword,
		c.PostgresHost, c.PostgresPort,
		c.PostgresDBName, c.PostgresSSLMode)
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash". A name already containing "/" is
// returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return ProviderGoogleAI + "/" + c.ModelName
}

// maskedValue is the placeholder for masked secrets. Full-width blocks avoid
// accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Secrets of 8 bytes or fewer
// are fully masked; longer ones keep the first and last two characters for
// debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit secret masking.
// Masked fields: PostgresPassword, WeatherAPIKey, StockAPIKey.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.WeatherAPIKey = maskSecret(a.WeatherAPIKey)
	a.StockAPIKey = maskSecret(a.StockAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
