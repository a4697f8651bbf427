package config

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(c *Config) {}, nil},
		{"missing model name", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, ErrInvalidProvider},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"max tokens zero", func(c *Config) { c.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"model timeout zero", func(c *Config) { c.ModelTimeoutSec = 0 }, ErrInvalidModelTuning},
		{"model timeout too long", func(c *Config) { c.ModelTimeoutSec = 601 }, ErrInvalidModelTuning},
		{"retries negative", func(c *Config) { c.ModelMaxRetries = -1 }, ErrInvalidModelTuning},
		{"retries excessive", func(c *Config) { c.ModelMaxRetries = 11 }, ErrInvalidModelTuning},
		{"model rps zero", func(c *Config) { c.ModelRPS = 0 }, ErrInvalidModelTuning},
		{"model burst zero", func(c *Config) { c.ModelBurst = 0 }, ErrInvalidModelTuning},
		{"breaker threshold zero", func(c *Config) { c.BreakerThreshold = 0 }, ErrInvalidModelTuning},
		{"memory window too small", func(c *Config) { c.MemoryWindow = 1 }, ErrInvalidMemoryWindow},
		{"max sessions zero", func(c *Config) { c.MaxSessions = 0 }, ErrInvalidMaxSessions},
		{"chunk size too small", func(c *Config) { c.ChunkSize = 50 }, ErrInvalidChunkSize},
		{"overlap exceeds chunk size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, ErrInvalidChunkOverlap},
		{"overlap negative", func(c *Config) { c.ChunkOverlap = -1 }, ErrInvalidChunkOverlap},
		{"top-k zero", func(c *Config) { c.RetrievalTopK = 0 }, ErrInvalidTopK},
		{"top-k too large", func(c *Config) { c.RetrievalTopK = 21 }, ErrInvalidTopK},
		{"tool timeout zero", func(c *Config) { c.ToolTimeoutSec = 0 }, ErrInvalidToolTimeout},
		{"empty tools root", func(c *Config) { c.ToolsRoot = "" }, ErrInvalidToolsRoot},
		{"postgres port out of range", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"deprecated ssl mode", func(c *Config) { c.PostgresSSLMode = "prefer" }, ErrInvalidPostgresSSLMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	err := validConfig().Validate()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Validate() = %v, want ErrMissingAPIKey", err)
	}
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() on nil = %v, want ErrConfigNil", err)
	}
}

func TestValidateServe(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid serve config", func(c *Config) {}, nil},
		{"origin without scheme", func(c *Config) { c.CORSOrigins = []string{"localhost:5173"} }, ErrInvalidCORSOrigin},
		{"zero rps", func(c *Config) { c.RateLimitRPS = 0 }, ErrInvalidRateLimit},
		{"zero burst", func(c *Config) { c.RateBurst = 0 }, ErrInvalidRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateServe()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateServe() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateServe() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
