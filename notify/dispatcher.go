// Package notify delivers high-urgency decisions to interested consumers.
// Delivery is best-effort and fire-and-forget: dispatch failures are the
// dispatcher's to report and must never propagate back into the engine.
package notify

import (
	"context"

	"github.com/tailored-agentic-units/procure/core/domain"
)

// Dispatcher delivers a batch of decisions. Implementations should return an
// error only for the caller to log; the engine treats every dispatch as
// best-effort.
type Dispatcher interface {
	Dispatch(ctx context.Context, decisions []domain.Decision) error
	Close() error
}

// Config parameterizes the NATS dispatcher.
type Config struct {
	// URL is the NATS server address. Empty disables dispatch entirely.
	URL string `json:"url,omitempty"`
	// Subject is the publish subject for decision notifications.
	Subject string `json:"subject,omitempty"`
}

// DefaultConfig returns notification defaults: dispatch disabled.
func DefaultConfig() Config {
	return Config{Subject: "procure.decisions.urgent"}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.Subject != "" {
		c.Subject = source.Subject
	}
}

// NewDispatcher creates a Dispatcher from configuration: NATS-backed when a
// URL is set, otherwise a no-op.
func NewDispatcher(cfg *Config) (Dispatcher, error) {
	if cfg.URL == "" {
		return NoOpDispatcher{}, nil
	}
	return Connect(cfg.URL, cfg.Subject)
}

// NoOpDispatcher discards all notifications.
type NoOpDispatcher struct{}

func (NoOpDispatcher) Dispatch(ctx context.Context, decisions []domain.Decision) error {
	return nil
}

func (NoOpDispatcher) Close() error { return nil }
