package textgen

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig holds retry settings for collaborator calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per call.
	MaxAttempts int `json:"max_attempts,omitempty"`
	// BackoffBase is the initial backoff duration in milliseconds.
	BackoffBaseMillis int `json:"backoff_base_ms,omitempty"`
	// BackoffMultiplier is applied to the backoff on each retry.
	BackoffMultiplier float64 `json:"backoff_multiplier,omitempty"`
	// MaxBackoffMillis caps the backoff duration in milliseconds.
	MaxBackoffMillis int `json:"max_backoff_ms,omitempty"`
}

// DefaultRetryConfig returns sensible retry defaults for collaborator calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBaseMillis: 2000,
		BackoffMultiplier: 2.0,
		MaxBackoffMillis:  30000,
	}
}

// Merge applies non-zero values from source into c.
func (c *RetryConfig) Merge(source *RetryConfig) {
	if source.MaxAttempts > 0 {
		c.MaxAttempts = source.MaxAttempts
	}
	if source.BackoffBaseMillis > 0 {
		c.BackoffBaseMillis = source.BackoffBaseMillis
	}
	if source.BackoffMultiplier > 0 {
		c.BackoffMultiplier = source.BackoffMultiplier
	}
	if source.MaxBackoffMillis > 0 {
		c.MaxBackoffMillis = source.MaxBackoffMillis
	}
}

// RetryingGenerator wraps a Generator with bounded retries and exponential
// backoff. Fatal errors return immediately; transient failures (timeouts,
// rate limiting, server errors) are retried until the attempt budget is
// exhausted, at which point the last error is wrapped in ErrExhausted.
type RetryingGenerator struct {
	inner  Generator
	cfg    RetryConfig
	logger *slog.Logger
}

// WithRetry wraps gen with retry behavior. A nil logger falls back to
// slog.Default.
func WithRetry(gen Generator, cfg RetryConfig, logger *slog.Logger) *RetryingGenerator {
	def := DefaultRetryConfig()
	def.Merge(&cfg)

	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingGenerator{inner: gen, cfg: def, logger: logger}
}

func (r *RetryingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		content, err := r.inner.Generate(ctx, req)
		if err == nil {
			return content, nil
		}

		if IsFatal(err) {
			return "", err
		}
		lastErr = err

		if attempt == r.cfg.MaxAttempts {
			break
		}

		backoff := r.backoff(attempt)
		r.logger.Debug("generation failed, retrying",
			"attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts,
			"backoff", backoff,
			"error", err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrExhausted, r.cfg.MaxAttempts, lastErr)
}

// backoff computes the delay before the next attempt: exponential growth
// from the base, capped, with up to 25% jitter to avoid thundering herds.
func (r *RetryingGenerator) backoff(attempt int) time.Duration {
	base := time.Duration(r.cfg.BackoffBaseMillis) * time.Millisecond
	max := time.Duration(r.cfg.MaxBackoffMillis) * time.Millisecond

	d := base
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * r.cfg.BackoffMultiplier)
		if d >= max {
			d = max
			break
		}
	}

	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}
