package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// memoryStore is an in-memory SubscriptionStore for tests and local
// development.
type memoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

// NewMemoryStore returns an in-memory SubscriptionStore.
func NewMemoryStore() SubscriptionStore {
	return &memoryStore{
		records: make(map[uuid.UUID]Record),
	}
}

func (s *memoryStore) Get(ctx context.Context, accountID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[accountID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}

	// Copy so callers cannot mutate stored state.
	return &record, nil
}

func (s *memoryStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.AccountID] = *record
	return nil
}
