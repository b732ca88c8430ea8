// Package memory provides the in-memory contact store used in development and
// as the test double for the consolidation service. It favors clarity over
// performance.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"linkage/internal/contact"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/sentinel"
)

type Store struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	contacts map[id.ContactID]*contact.Contact
	now      func() time.Time
}

func New() *Store {
	return &Store{
		contacts: make(map[id.ContactID]*contact.Contact),
		now:      time.Now,
	}
}

// NewWithClock lets tests pin timestamps.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) FindMatching(_ context.Context, email, phoneNumber *string) ([]*contact.Contact, error) {
	if email == nil && phoneNumber == nil {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*contact.Contact
	for _, c := range s.contacts {
		if email != nil && c.Email != nil && *c.Email == *email {
			matched = append(matched, clone(c))
			continue
		}
		if phoneNumber != nil && c.PhoneNumber != nil && *c.PhoneNumber == *phoneNumber {
			matched = append(matched, clone(c))
		}
	}
	sortByAge(matched)
	return matched, nil
}

func (s *Store) Create(_ context.Context, c *contact.Contact) (*contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(c)
	if stored.ID.IsNil() {
		stored.ID = id.NewContactID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	stored.UpdatedAt = stored.CreatedAt

	if _, exists := s.contacts[stored.ID]; exists {
		return nil, sentinel.ErrConflict
	}
	s.contacts[stored.ID] = stored
	return clone(stored), nil
}

func (s *Store) Update(_ context.Context, contactID id.ContactID, patch contact.Patch) (*contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.contacts[contactID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if patch.LinkPrecedence != nil {
		existing.LinkPrecedence = *patch.LinkPrecedence
	}
	if patch.LinkedID != nil {
		linked := *patch.LinkedID
		existing.LinkedID = &linked
	}
	existing.UpdatedAt = s.now()
	return clone(existing), nil
}

func (s *Store) FindAllLinked(_ context.Context, primaryID id.ContactID) ([]*contact.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var primary *contact.Contact
	var secondaries []*contact.Contact
	for _, c := range s.contacts {
		switch {
		case c.ID == primaryID:
			primary = clone(c)
		case c.LinksTo(primaryID):
			secondaries = append(secondaries, clone(c))
		}
	}
	sortByAge(secondaries)

	if primary == nil {
		return secondaries, nil
	}
	return append([]*contact.Contact{primary}, secondaries...), nil
}

// RunInTx serializes merge sequences behind a coarse lock. Individual reads
// and writes inside fn still take the store's own locking.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Len reports the number of stored contacts. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contacts)
}

func sortByAge(contacts []*contact.Contact) {
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].ID.String() < contacts[j].ID.String()
		}
		return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
	})
}

func clone(c *contact.Contact) *contact.Contact {
	copied := *c
	if c.Email != nil {
		v := *c.Email
		copied.Email = &v
	}
	if c.PhoneNumber != nil {
		v := *c.PhoneNumber
		copied.PhoneNumber = &v
	}
	if c.LinkedID != nil {
		v := *c.LinkedID
		copied.LinkedID = &v
	}
	if c.DeletedAt != nil {
		v := *c.DeletedAt
		copied.DeletedAt = &v
	}
	return &copied
}
