package negotiation

import "time"

// Config holds negotiation session parameters.
type Config struct {
	// Tolerance is the fraction of the target price within which an
	// extracted offer counts as meeting the target (0.05 = ±5%).
	Tolerance float64 `json:"tolerance,omitempty"`
	// MaxRounds is the round budget before a session fails.
	MaxRounds int `json:"max_rounds,omitempty"`
	// IdleTimeoutSeconds is how long a session may sit without a message
	// before expiring.
	IdleTimeoutSeconds int `json:"idle_timeout_seconds,omitempty"`
	// HistoryWindow is the number of trailing messages included in the
	// vendor persona's prompt.
	HistoryWindow int `json:"history_window,omitempty"`
}

// DefaultConfig returns the standard negotiation parameters.
func DefaultConfig() Config {
	return Config{
		Tolerance:          0.05,
		MaxRounds:          10,
		IdleTimeoutSeconds: 1800,
		HistoryWindow:      10,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Tolerance > 0 {
		c.Tolerance = source.Tolerance
	}
	if source.MaxRounds > 0 {
		c.MaxRounds = source.MaxRounds
	}
	if source.IdleTimeoutSeconds > 0 {
		c.IdleTimeoutSeconds = source.IdleTimeoutSeconds
	}
	if source.HistoryWindow > 0 {
		c.HistoryWindow = source.HistoryWindow
	}
}

func (c Config) idleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}
