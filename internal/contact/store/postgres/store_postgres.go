// Package postgres persists contacts in PostgreSQL. The store is pure I/O;
// all consolidation decisions belong in the service layer.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"linkage/internal/contact"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/sentinel"
	txctx "linkage/pkg/platform/tx"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id              UUID PRIMARY KEY,
	email           TEXT,
	phone_number    TEXT,
	linked_id       UUID REFERENCES contacts(id),
	link_precedence TEXT NOT NULL CHECK (link_precedence IN ('primary', 'secondary')),
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	deleted_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts (email);
CREATE INDEX IF NOT EXISTS idx_contacts_phone_number ON contacts (phone_number);
CREATE INDEX IF NOT EXISTS idx_contacts_linked_id ON contacts (linked_id);
`

// EnsureSchema creates the contacts table and its indexes when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure contacts schema: %w", err)
	}
	return nil
}

const contactColumns = `id, email, phone_number, linked_id, link_precedence, created_at, updated_at, deleted_at`

func (s *Store) FindMatching(ctx context.Context, email, phoneNumber *string) ([]*contact.Contact, error) {
	if email == nil && phoneNumber == nil {
		return nil, nil
	}

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE ($1::TEXT IS NOT NULL AND email = $1)
		   OR ($2::TEXT IS NOT NULL AND phone_number = $2)
		ORDER BY created_at, id
	`
	rows, err := txctx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, email, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("find matching contacts: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
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

	query := `
		INSERT INTO contacts (id, email, phone_number, linked_id, link_precedence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var linkedID *string
	if stored.LinkedID != nil {
		v := stored.LinkedID.String()
		linkedID = &v
	}
	_, err := txctx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		stored.ID.String(), stored.Email, stored.PhoneNumber, linkedID,
		string(stored.LinkPrecedence), stored.CreatedAt, stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &stored, nil
}

func (s *Store) Update(ctx context.Context, contactID id.ContactID, patch contact.Patch) (*contact.Contact, error) {
	var precedence *string
	if patch.LinkPrecedence != nil {
		v := string(*patch.LinkPrecedence)
		precedence = &v
	}
	var linkedID *string
	if patch.LinkedID != nil {
		v := patch.LinkedID.String()
		linkedID = &v
	}

	query := `
		UPDATE contacts
		SET link_precedence = COALESCE($2, link_precedence),
		    linked_id = COALESCE($3::UUID, linked_id),
		    updated_at = $4
		WHERE id = $1
		RETURNING ` + contactColumns
	row := txctx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query,
		contactID.String(), precedence, linkedID, s.now(),
	)
	updated, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return updated, nil
}

func (s *Store) FindAllLinked(ctx context.Context, primaryID id.ContactID) ([]*contact.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = $1 OR linked_id = $1
		ORDER BY (id <> $1), created_at, id
	`
	rows, err := txctx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, primaryID.String())
	if err != nil {
		return nil, fmt.Errorf("find linked contacts: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

// RunInTx opens a transaction, threads it through ctx so store calls inside fn
// join it, and commits when fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(txctx.WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping reports backend health for the liveness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*contact.Contact, error) {
	var (
		c         contact.Contact
		rawID     string
		email     sql.NullString
		phone     sql.NullString
		linkedID  sql.NullString
		prec      string
		deletedAt sql.NullTime
	)
	if err := row.Scan(&rawID, &email, &phone, &linkedID, &prec, &c.CreatedAt, &c.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}

	parsed, err := id.ParseContactID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan contact id: %w", err)
	}
	c.ID = parsed
	c.LinkPrecedence = contact.LinkPrecedence(prec)
	if email.Valid {
		c.Email = &email.String
	}
	if phone.Valid {
		c.PhoneNumber = &phone.String
	}
	if linkedID.Valid {
		linked, err := id.ParseContactID(linkedID.String)
		if err != nil {
			return nil, fmt.Errorf("scan linked id: %w", err)
		}
		c.LinkedID = &linked
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

func scanContacts(rows *sql.Rows) ([]*contact.Contact, error) {
	var contacts []*contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}
