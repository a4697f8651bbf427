package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key is read by the Genkit plugin directly from the environment;
	// fail fast here so a misconfigured process never reaches a model call.
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.Provider != ProviderGemini && c.Provider != ProviderGoogleAI {
		return fmt.Errorf("%w: %q (supported: %s, %s)",
			ErrInvalidProvider, c.Provider, ProviderGemini, ProviderGoogleAI)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range per the Gemini API: 0.0 to 2.0.
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 2097152 {
		return fmt.Errorf("%w: must be between 1 and 2,097,152, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	// Model client resilience
	if c.ModelTimeoutSec < 1 || c.ModelTimeoutSec > 600 {
		return fmt.Errorf("%w: model_timeout_sec must be between 1 and 600, got %d",
			ErrInvalidModelTuning, c.ModelTimeoutSec)
	}
	if c.ModelMaxRetries < 0 || c.ModelMaxRetries > 10 {
		return fmt.Errorf("%w: model_max_retries must be between 0 and 10, got %d",
			ErrInvalidModelTuning, c.ModelMaxRetries)
	}
	if c.ModelRPS <= 0 || c.ModelRPS > 1000 {
		return fmt.Errorf("%w: model_rps must be between 0 and 1000, got %g",
			ErrInvalidModelTuning, c.ModelRPS)
	}
	if c.ModelBurst < 1 {
		return fmt.Errorf("%w: model_burst must be at least 1, got %d",
			ErrInvalidModelTuning, c.ModelBurst)
	}
	if c.BreakerThreshold < 1 {
		return fmt.Errorf("%w: breaker_threshold must be at least 1, got %d",
			ErrInvalidModelTuning, c.BreakerThreshold)
	}

	// Conversation memory
	if c.MemoryWindow < 2 || c.MemoryWindow > 1000 {
		return fmt.Errorf("%w: must be between 2 and 1000, got %d", ErrInvalidMemoryWindow, c.MemoryWindow)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidMaxSessions, c.MaxSessions)
	}

	// Knowledge index
	if c.ChunkSize < 100 || c.ChunkSize > 100000 {
		return fmt.Errorf("%w: must be between 100 and 100,000, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: must be non-negative and smaller than chunk_size (%d), got %d",
			ErrInvalidChunkOverlap, c.ChunkSize, c.ChunkOverlap)
	}
	if c.RetrievalTopK < 1 || c.RetrievalTopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.RetrievalTopK)
	}

	// Tools
	if c.ToolTimeoutSec < 1 || c.ToolTimeoutSec > 300 {
		return fmt.Errorf("%w: must be between 1 and 300 seconds, got %d", ErrInvalidToolTimeout, c.ToolTimeoutSec)
	}
	if c.ToolsRoot == "" {
		return fmt.Errorf("%w: tools_root cannot be empty", ErrInvalidToolsRoot)
	}

	// PostgreSQL; the knowledge index is optional but its settings must be
	// coherent so Setup can decide whether to connect.
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}

// ValidateServe performs the additional checks required for HTTP server mode.
func (c *Config) ValidateServe() error {
	if c == nil {
		return ErrConfigNil
	}

	for _, origin := range c.CORSOrigins {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q must be scheme://host[:port]", ErrInvalidCORSOrigin, origin)
		}
	}

	if c.RateLimitRPS <= 0 || c.RateLimitRPS > 10000 {
		return fmt.Errorf("%w: rate_limit_rps must be between 0 and 10,000, got %g",
			ErrInvalidRateLimit, c.RateLimitRPS)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("%w: rate_burst must be at least 1, got %d", ErrInvalidRateLimit, c.RateBurst)
	}

	return nil
}
