// Package storage provides durable persistence for finished decisions and
// negotiation sessions. The engine only needs save and fetch-by-id
// semantics; implementations are stateless between calls.
package storage

import (
	"context"
	"errors"

	"github.com/tailored-agentic-units/procure/core/domain"
)

// Sentinel errors for store operations.
var (
	ErrNotFound   = errors.New("record not found")
	ErrSaveFailed = errors.New("save failed")
	ErrLoadFailed = errors.New("load failed")
)

// Store persists decision and session records.
type Store interface {
	// SaveDecisions persists a batch of decisions, overwriting by id.
	SaveDecisions(ctx context.Context, decisions []domain.Decision) error
	// Decision retrieves a decision by id.
	Decision(ctx context.Context, id string) (domain.Decision, error)
	// DecisionsBySKU retrieves all stored decisions for a SKU.
	DecisionsBySKU(ctx context.Context, sku string) ([]domain.Decision, error)
	// SaveSession persists a session snapshot, overwriting by id.
	SaveSession(ctx context.Context, record domain.SessionRecord) error
	// Session retrieves a session snapshot by id.
	Session(ctx context.Context, id string) (domain.SessionRecord, error)
	// Close releases any underlying resources.
	Close() error
}

// Config selects and parameterizes the store backend.
type Config struct {
	// Path is the sqlite database file. Empty selects the in-memory store.
	Path string `json:"path,omitempty"`
}

// DefaultConfig returns the default storage configuration (in-memory).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
}

// NewStore creates a Store from configuration: sqlite when a path is set,
// otherwise the in-memory store.
func NewStore(cfg *Config) (Store, error) {
	if cfg.Path != "" {
		return OpenSQLite(cfg.Path)
	}
	return NewMemoryStore(), nil
}
