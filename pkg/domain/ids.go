// Package domain holds identifier types shared across layers. IDs are typed
// wrappers around UUIDs so a contact id can never be confused with a raw
// string or another entity's id at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "linkage/pkg/domain-errors"
)

// ContactID identifies a contact record. The zero value is invalid.
type ContactID uuid.UUID

// NewContactID returns a fresh random ContactID.
func NewContactID() ContactID {
	return ContactID(uuid.New())
}

// ParseContactID validates raw input at trust boundaries. It rejects empty
// strings, malformed UUIDs, and the nil UUID.
func ParseContactID(raw string) (ContactID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ContactID{}, dErrors.New(dErrors.CodeInvalidInput, "contact id must not be empty")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return ContactID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "contact id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return ContactID{}, dErrors.New(dErrors.CodeInvalidInput, "contact id must not be the nil UUID")
	}
	return ContactID(parsed), nil
}

func (id ContactID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id is the zero UUID.
func (id ContactID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText renders the id as its canonical UUID string so JSON payloads
// carry "xxxxxxxx-..." rather than a byte array.
func (id ContactID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical UUID string form.
func (id *ContactID) UnmarshalText(text []byte) error {
	parsed, err := ParseContactID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
