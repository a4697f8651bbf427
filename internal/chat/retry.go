package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/koopa0/parley/internal/log"
)

// RetryConfig tunes the bounded exponential backoff around model calls.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns the production defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups transient error substrings by category,
// matched case-insensitively. String matching because the provider SDKs
// do not expose typed errors for transient failures.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},
	{"500", "502", "503", "504", "unavailable"},
	{"connection reset", "timeout", "temporary"},
}

// fatalPatterns are never retried regardless of the retryable match:
// a bad credential does not heal with backoff.
var fatalPatterns = []string{
	"api key", "unauthorized", "unauthenticated", "permission denied", "401", "403",
}

func retryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return false
		}
	}
	for _, group := range retryablePatterns {
		for _, p := range group {
			if strings.Contains(msg, p) {
				return true
			}
		}
	}
	return false
}

// withRetry runs fn under bounded exponential backoff. Non-retryable
// errors fail immediately; context cancellation aborts the backoff wait.
func withRetry[T any](ctx context.Context, cfg RetryConfig, logger log.Logger, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	delay := cfg.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Debug("model call succeeded after retry",
					"attempts", attempt+1,
					"elapsed", time.Since(start),
				)
			}
			return out, nil
		}
		lastErr = err

		if !retryableError(err) {
			return zero, err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		logger.Debug("retrying model call",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("canceled during retry backoff: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, cfg.MaxInterval)
		}
	}

	return zero, fmt.Errorf("model call failed after %d retries (elapsed %v): %w",
		cfg.MaxRetries, time.Since(start), lastErr)
}
