package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/tailored-agentic-units/procure/core/domain"
)

// memoryStore keeps records in maps. Used for tests and for runs that do
// not configure a database path.
type memoryStore struct {
	mu        sync.RWMutex
	decisions map[string]domain.Decision
	sessions  map[string]domain.SessionRecord
}

// NewMemoryStore creates an in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		decisions: make(map[string]domain.Decision),
		sessions:  make(map[string]domain.SessionRecord),
	}
}

func (s *memoryStore) SaveDecisions(_ context.Context, decisions []domain.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range decisions {
		if d.ID == "" {
			return fmt.Errorf("%w: decision has no id", ErrSaveFailed)
		}
		s.decisions[d.ID] = d
	}
	return nil
}

func (s *memoryStore) Decision(_ context.Context, id string) (domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.decisions[id]
	if !ok {
		return domain.Decision{}, fmt.Errorf("%w: decision %s", ErrNotFound, id)
	}
	return d, nil
}

func (s *memoryStore) DecisionsBySKU(_ context.Context, sku string) ([]domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Decision
	for _, d := range s.decisions {
		if d.SKU == sku {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memoryStore) SaveSession(_ context.Context, record domain.SessionRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: session has no id", ErrSaveFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.ID] = record
	return nil
}

func (s *memoryStore) Session(_ context.Context, id string) (domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return domain.SessionRecord{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return rec, nil
}

func (s *memoryStore) Close() error {
	return nil
}
