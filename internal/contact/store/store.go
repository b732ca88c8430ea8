// Package store declares the persistence contract for contact records.
// Implementations are interface-driven so the consolidation service can run
// against in-memory, PostgreSQL, or Redis backends without rewiring.
package store

import (
	"context"

	"linkage/internal/contact"
	id "linkage/pkg/domain"
)

// Store is the contract the consolidation service depends on.
//
// FindMatching is an OR query over the supplied criteria; when neither email
// nor phone is provided it returns an empty slice without touching the
// backend. FindAllLinked returns the primary itself first, then its
// secondaries ordered by (CreatedAt, ID), so aggregate views are deterministic
// across implementations.
type Store interface {
	FindMatching(ctx context.Context, email, phoneNumber *string) ([]*contact.Contact, error)
	Create(ctx context.Context, c *contact.Contact) (*contact.Contact, error)
	Update(ctx context.Context, contactID id.ContactID, patch contact.Patch) (*contact.Contact, error)
	FindAllLinked(ctx context.Context, primaryID id.ContactID) ([]*contact.Contact, error)

	// RunInTx brackets a multi-step merge so it either fully applies or is
	// safely replayable. SQL-backed stores open a real transaction and thread
	// it through ctx; in-memory stores take a coarse lock.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
