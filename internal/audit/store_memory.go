package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps the audit trail in process memory. Suitable for
// development and tests; swap in a durable sink without touching the worker.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByPrimary(_ context.Context, primaryID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Event
	for _, e := range s.events {
		if e.PrimaryID.String() == primaryID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// All returns a copy of every recorded event. Test helper.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}
