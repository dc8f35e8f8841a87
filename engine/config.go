package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailored-agentic-units/procure/evaluate"
	"github.com/tailored-agentic-units/procure/negotiation"
	"github.com/tailored-agentic-units/procure/notify"
	"github.com/tailored-agentic-units/procure/storage"
	"github.com/tailored-agentic-units/procure/textgen"
)

// Config holds initialization parameters for all engine subsystems.
// Each section delegates to that subsystem's config-driven constructor.
type Config struct {
	Evaluator   evaluate.Config    `json:"evaluator"`
	Negotiation negotiation.Config `json:"negotiation"`
	TextGen     textgen.Config     `json:"textgen"`
	Storage     storage.Config     `json:"storage"`
	Notify      notify.Config      `json:"notify"`

	// Workers bounds the classification worker pool; 0 auto-detects.
	Workers int `json:"workers,omitempty"`
	// Observer names a registered observer ("slog", "noop", or custom).
	Observer string `json:"observer,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Evaluator:   evaluate.DefaultConfig(),
		Negotiation: negotiation.DefaultConfig(),
		TextGen:     textgen.DefaultConfig(),
		Storage:     storage.DefaultConfig(),
		Notify:      notify.DefaultConfig(),
		Observer:    "slog",
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Evaluator.Merge(&source.Evaluator)
	c.Negotiation.Merge(&source.Negotiation)
	c.TextGen.Merge(&source.TextGen)
	c.Storage.Merge(&source.Storage)
	c.Notify.Merge(&source.Notify)

	if source.Workers > 0 {
		c.Workers = source.Workers
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&fileCfg)
	return &cfg, nil
}
