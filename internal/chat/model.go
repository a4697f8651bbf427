package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/koopa0/parley/internal/log"
)

// ClientConfig configures the model client.
type ClientConfig struct {
	// APIKey for the Gemini API.
	APIKey string

	// Model is the bare model name, e.g. "gemini-2.5-flash".
	Model string

	// Temperature for generation.
	Temperature float32

	// Timeout bounds each individual model call. Zero means 60s.
	Timeout time.Duration

	// Retry, Breaker, and Limiter settings; zero values use defaults.
	Retry   RetryConfig
	Breaker CircuitBreakerConfig

	// RequestsPerSecond caps outbound model calls. Zero means 10 rps
	// with a burst of 30.
	RequestsPerSecond float64
	Burst             int
}

// Client is the resilient model client: every call passes the rate
// limiter, the circuit breaker, and the retry loop, in that order.
type Client struct {
	models      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration

	retry   RetryConfig
	breaker *CircuitBreaker
	limiter *rate.Limiter

	logger log.Logger
}

// NewClient creates the model client.
func NewClient(ctx context.Context, cfg ClientConfig, logger log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	rps := cfg.RequestsPerSecond
	burst := cfg.Burst
	if rps <= 0 {
		rps, burst = 10, 30
	}
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		models:      gc,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		retry:       cfg.Retry,
		breaker:     NewCircuitBreaker(cfg.Breaker),
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		logger:      logger,
	}, nil
}

// Generate returns the model's reply to prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

// GenerateStream streams reply chunks through emit as they arrive and
// returns the full concatenated text.
func (c *Client) GenerateStream(ctx context.Context, prompt string, emit func(string) error) (string, error) {
	return c.generate(ctx, prompt, emit)
}

func (c *Client) generate(ctx context.Context, prompt string, emit func(string) error) (string, error) {
	if err := c.breaker.Allow(); err != nil {
		return "", fmt.Errorf("model unavailable: %w", err)
	}

	text, err := withRetry(ctx, c.retry, c.logger, func(ctx context.Context) (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		if emit == nil {
			return c.call(callCtx, prompt)
		}
		return c.callStream(callCtx, prompt, emit)
	})
	if err != nil {
		c.breaker.Failure()
		return "", err
	}

	c.breaker.Success()
	return text, nil
}

func (c *Client) generationConfig() *genai.GenerateContentConfig {
	temp := c.temperature
	return &genai.GenerateContentConfig{Temperature: &temp}
}

func promptContents(prompt string) []*genai.Content {
	return []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.Models.GenerateContent(ctx, c.model, promptContents(prompt), c.generationConfig())
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return text, nil
}

func (c *Client) callStream(ctx context.Context, prompt string, emit func(string) error) (string, error) {
	var b strings.Builder

	for resp, err := range c.models.Models.GenerateContentStream(ctx, c.model, promptContents(prompt), c.generationConfig()) {
		if err != nil {
			return "", fmt.Errorf("generate content stream: %w", err)
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		b.WriteString(chunk)
		if err := emit(chunk); err != nil {
			return "", fmt.Errorf("stream consumer: %w", err)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return text, nil
}
