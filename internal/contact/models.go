// Package contact defines the contact entity and the link model that ties a
// consolidated identity cluster together: one primary record plus any number
// of secondaries pointing directly at it.
package contact

import (
	"time"

	id "linkage/pkg/domain"
)

// LinkPrecedence is a closed enum: a contact is either the canonical primary
// of its cluster or a secondary linked to one. Anything else is invalid.
type LinkPrecedence string

const (
	LinkPrecedencePrimary   LinkPrecedence = "primary"
	LinkPrecedenceSecondary LinkPrecedence = "secondary"
)

// Valid reports whether the value is one of the two allowed variants.
func (p LinkPrecedence) Valid() bool {
	return p == LinkPrecedencePrimary || p == LinkPrecedenceSecondary
}

// Contact is the sole persisted entity. Email and PhoneNumber are optional but
// a stored contact always carries at least one of them. LinkedID is set iff
// the contact is secondary, and must reference a primary (the link tree has
// depth exactly one; no secondary ever points at another secondary).
//
// DeletedAt is reserved in the schema for soft deletion. No code path sets or
// filters on it.
type Contact struct {
	ID             id.ContactID   `json:"id"`
	Email          *string        `json:"email,omitempty"`
	PhoneNumber    *string        `json:"phoneNumber,omitempty"`
	LinkedID       *id.ContactID  `json:"linkedId,omitempty"`
	LinkPrecedence LinkPrecedence `json:"linkPrecedence"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      *time.Time     `json:"deletedAt,omitempty"`
}

// IsPrimary reports whether this contact is the canonical head of its cluster.
func (c *Contact) IsPrimary() bool {
	return c.LinkPrecedence == LinkPrecedencePrimary
}

// LinksTo reports whether this contact is a secondary attached to primaryID.
func (c *Contact) LinksTo(primaryID id.ContactID) bool {
	return c.LinkedID != nil && *c.LinkedID == primaryID
}

// Patch describes a partial update. Nil fields are left untouched; stores bump
// UpdatedAt on every applied patch.
type Patch struct {
	LinkPrecedence *LinkPrecedence
	LinkedID       *id.ContactID
}
