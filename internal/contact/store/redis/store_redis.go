// Package redis persists contacts in Redis. Records are JSON blobs keyed by
// id, with sets maintained per email, phone number, and primary link so the
// OR-query and closure lookups stay O(cluster size) instead of scanning the
// keyspace.
//
// Redis offers no multi-key transaction that spans the whole merge sequence,
// so RunInTx is a process-local mutex boundary; every individual mutation is
// idempotent and safe to replay after a partial failure.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"linkage/internal/contact"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/sentinel"
)

const (
	recordKeyPrefix   = "contact:rec:"
	emailIndexPrefix  = "contact:idx:email:"
	phoneIndexPrefix  = "contact:idx:phone:"
	linkedIndexPrefix = "contact:idx:linked:"
)

type Store struct {
	client *redis.Client
	txMu   sync.Mutex
	now    func() time.Time
}

func New(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func recordKey(contactID id.ContactID) string {
	return recordKeyPrefix + contactID.String()
}

func (s *Store) FindMatching(ctx context.Context, email, phoneNumber *string) ([]*contact.Contact, error) {
	if email == nil && phoneNumber == nil {
		return nil, nil
	}

	var indexKeys []string
	if email != nil {
		indexKeys = append(indexKeys, emailIndexPrefix+*email)
	}
	if phoneNumber != nil {
		indexKeys = append(indexKeys, phoneIndexPrefix+*phoneNumber)
	}

	ids, err := s.client.SUnion(ctx, indexKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("union contact indexes: %w", err)
	}
	return s.loadSorted(ctx, ids)
}

func (s *Store) Create(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	stored := *c
	if stored.ID.IsNil() {
		stored.ID = id.NewContactID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	stored.UpdatedAt = stored.CreatedAt

	payload, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("encode contact: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(stored.ID), payload, 0)
	if stored.Email != nil {
		pipe.SAdd(ctx, emailIndexPrefix+*stored.Email, stored.ID.String())
	}
	if stored.PhoneNumber != nil {
		pipe.SAdd(ctx, phoneIndexPrefix+*stored.PhoneNumber, stored.ID.String())
	}
	if stored.LinkedID != nil {
		pipe.SAdd(ctx, linkedIndexPrefix+stored.LinkedID.String(), stored.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &stored, nil
}

func (s *Store) Update(ctx context.Context, contactID id.ContactID, patch contact.Patch) (*contact.Contact, error) {
	existing, err := s.load(ctx, contactID.String())
	if err != nil {
		return nil, err
	}

	previousLink := existing.LinkedID
	if patch.LinkPrecedence != nil {
		existing.LinkPrecedence = *patch.LinkPrecedence
	}
	if patch.LinkedID != nil {
		linked := *patch.LinkedID
		existing.LinkedID = &linked
	}
	existing.UpdatedAt = s.now()

	payload, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("encode contact: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(existing.ID), payload, 0)
	if previousLink != nil && (existing.LinkedID == nil || *existing.LinkedID != *previousLink) {
		pipe.SRem(ctx, linkedIndexPrefix+previousLink.String(), existing.ID.String())
	}
	if existing.LinkedID != nil && (previousLink == nil || *previousLink != *existing.LinkedID) {
		pipe.SAdd(ctx, linkedIndexPrefix+existing.LinkedID.String(), existing.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return existing, nil
}

func (s *Store) FindAllLinked(ctx context.Context, primaryID id.ContactID) ([]*contact.Contact, error) {
	secondaryIDs, err := s.client.SMembers(ctx, linkedIndexPrefix+primaryID.String()).Result()
	if err != nil {
		return nil, fmt.Errorf("list linked contacts: %w", err)
	}
	secondaries, err := s.loadSorted(ctx, secondaryIDs)
	if err != nil {
		return nil, err
	}

	primary, err := s.load(ctx, primaryID.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return secondaries, nil
	}
	if err != nil {
		return nil, err
	}
	return append([]*contact.Contact{primary}, secondaries...), nil
}

// RunInTx serializes merge sequences within this process. Cross-process races
// rely on each mutation being individually idempotent.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Ping reports backend health for the liveness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) load(ctx context.Context, rawID string) (*contact.Contact, error) {
	payload, err := s.client.Get(ctx, recordKeyPrefix+rawID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contact: %w", err)
	}
	var c contact.Contact
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	return &c, nil
}

func (s *Store) loadSorted(ctx context.Context, ids []string) ([]*contact.Contact, error) {
	contacts := make([]*contact.Contact, 0, len(ids))
	for _, rawID := range ids {
		c, err := s.load(ctx, rawID)
		if errors.Is(err, sentinel.ErrNotFound) {
			// Index entry outlived its record after a partial failure; skip.
			continue
		}
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].ID.String() < contacts[j].ID.String()
		}
		return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
	})
	return contacts, nil
}
