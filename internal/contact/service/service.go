// Package service implements contact identity consolidation: deciding which
// existing contact is the canonical primary, merging clusters that a request
// bridges, creating secondary records for new identity facets, and shaping
// the aggregate view.
package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"linkage/internal/audit"
	"linkage/internal/contact"
	"linkage/internal/contact/metrics"
	"linkage/internal/contact/store"
	"linkage/internal/platform/middleware"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	pstrings "linkage/pkg/platform/strings"
)

// Resolution is the unified view of one identity cluster after a resolution:
// the canonical primary, every known email and phone number in first-seen
// order, and the ids of all secondary records.
type Resolution struct {
	PrimaryID    id.ContactID
	Emails       []string
	PhoneNumbers []string
	SecondaryIDs []id.ContactID
}

// Service owns the consolidation decisions. The store is injected so tests
// run against the in-memory implementation; auditor and metrics are optional.
type Service struct {
	store   store.Store
	auditor *audit.Publisher
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(st store.Store, auditor *audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		store:   st,
		auditor: auditor,
		metrics: m,
		tracer:  otel.Tracer("linkage/contact"),
	}
}

// Resolve consolidates the submitted identity claim against known contacts.
//
// Empty or whitespace-only fields are treated as absent. When both are absent
// the request is rejected before any store call. Otherwise: match by email OR
// phone; no match creates a fresh primary; any match selects the oldest
// primary as canonical, demotes every other matched primary, re-links stale
// secondaries, and creates a new secondary when the exact submitted pair is
// not yet in the cluster. The demote/relink/create sequence runs inside the
// store's transactional boundary.
func (s *Service) Resolve(ctx context.Context, email, phoneNumber *string) (*Resolution, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveResolveLatency(time.Since(start))
	}()

	email = normalize(email)
	phoneNumber = normalize(phoneNumber)
	if email == nil && phoneNumber == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one of email or phoneNumber is required")
	}

	ctx, span := s.tracer.Start(ctx, "contact.resolve", trace.WithAttributes(
		attribute.Bool("contact.has_email", email != nil),
		attribute.Bool("contact.has_phone", phoneNumber != nil),
	))
	defer span.End()

	matched, err := s.store.FindMatching(ctx, email, phoneNumber)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find matching contacts")
	}

	if len(matched) == 0 {
		return s.createNewCluster(ctx, email, phoneNumber)
	}
	return s.consolidate(ctx, matched, email, phoneNumber)
}

func (s *Service) createNewCluster(ctx context.Context, email, phoneNumber *string) (*Resolution, error) {
	created, err := s.store.Create(ctx, &contact.Contact{
		Email:          email,
		PhoneNumber:    phoneNumber,
		LinkPrecedence: contact.LinkPrecedencePrimary,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create primary contact")
	}

	s.metrics.IncrementContactCreated(string(contact.LinkPrecedencePrimary))
	s.metrics.IncrementResolution("created_primary")
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionPrimaryCreated,
		PrimaryID: created.ID,
		ContactID: created.ID,
		RequestID: middleware.GetRequestID(ctx),
	})

	return aggregate(created.ID, []*contact.Contact{created}), nil
}

func (s *Service) consolidate(ctx context.Context, matched []*contact.Contact, email, phoneNumber *string) (*Resolution, error) {
	primary := selectPrimary(matched)

	var (
		closure          []*contact.Contact
		demoted          int
		createdSecondary *contact.Contact
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		// Demote competing primaries and repoint stale secondaries so the
		// link tree keeps depth one with a single head.
		for _, c := range matched {
			if c.ID == primary.ID {
				continue
			}
			switch {
			case c.IsPrimary():
				if err := s.attach(ctx, c.ID, primary.ID, true); err != nil {
					return err
				}
				demoted++
			case !c.LinksTo(primary.ID):
				if err := s.attach(ctx, c.ID, primary.ID, false); err != nil {
					return err
				}
			}
		}

		linked, err := s.store.FindAllLinked(ctx, primary.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load identity cluster")
		}

		if !hasExactDuplicate(linked, email, phoneNumber) {
			linkedTo := primary.ID
			createdSecondary, err = s.store.Create(ctx, &contact.Contact{
				Email:          email,
				PhoneNumber:    phoneNumber,
				LinkPrecedence: contact.LinkPrecedenceSecondary,
				LinkedID:       &linkedTo,
			})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "create secondary contact")
			}
			linked, err = s.store.FindAllLinked(ctx, primary.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "reload identity cluster")
			}
		}

		closure = linked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordOutcome(ctx, primary.ID, demoted, createdSecondary)
	return aggregate(primary.ID, closure), nil
}

// attach links contactID under primaryID, demoting it when it was a primary.
func (s *Service) attach(ctx context.Context, contactID, primaryID id.ContactID, demote bool) error {
	patch := contact.Patch{LinkedID: &primaryID}
	if demote {
		secondary := contact.LinkPrecedenceSecondary
		patch.LinkPrecedence = &secondary
	}
	if _, err := s.store.Update(ctx, contactID, patch); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "link contact to primary")
	}
	return nil
}

func (s *Service) recordOutcome(ctx context.Context, primaryID id.ContactID, demoted int, createdSecondary *contact.Contact) {
	if createdSecondary != nil {
		s.metrics.IncrementContactCreated(string(contact.LinkPrecedenceSecondary))
	}

	event := audit.Event{
		PrimaryID: primaryID,
		Demoted:   demoted,
		RequestID: middleware.GetRequestID(ctx),
	}
	switch {
	case demoted > 0:
		s.metrics.IncrementResolution("merged")
		event.Action = audit.ActionClustersMerged
		if createdSecondary != nil {
			event.ContactID = createdSecondary.ID
		}
		s.auditor.Emit(ctx, event)
	case createdSecondary != nil:
		s.metrics.IncrementResolution("created_secondary")
		event.Action = audit.ActionSecondaryCreated
		event.ContactID = createdSecondary.ID
		s.auditor.Emit(ctx, event)
	default:
		s.metrics.IncrementResolution("matched")
	}
}

// selectPrimary picks the earliest-created primary from the match set, with id
// order as a stable tie-break. When the match set holds no primary at all
// (every matched row was already someone's secondary) the first element
// stands in as the candidate.
func selectPrimary(matched []*contact.Contact) *contact.Contact {
	var primary *contact.Contact
	for _, c := range matched {
		if !c.IsPrimary() {
			continue
		}
		if primary == nil || olderThan(c, primary) {
			primary = c
		}
	}
	if primary == nil {
		return matched[0]
	}
	return primary
}

func olderThan(a, b *contact.Contact) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID.String() < b.ID.String()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// hasExactDuplicate reports whether the cluster already holds the submitted
// pair exactly, treating absent fields as equal to absent. A one-field request
// therefore never duplicates a two-field record, but re-submitting the same
// one-field claim stays idempotent.
func hasExactDuplicate(closure []*contact.Contact, email, phoneNumber *string) bool {
	for _, c := range closure {
		if optionalEqual(c.Email, email) && optionalEqual(c.PhoneNumber, phoneNumber) {
			return true
		}
	}
	return false
}

func optionalEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func aggregate(primaryID id.ContactID, closure []*contact.Contact) *Resolution {
	emails := make([]string, 0, len(closure))
	phones := make([]string, 0, len(closure))
	secondaryIDs := make([]id.ContactID, 0, len(closure))

	for _, c := range closure {
		if c.Email != nil {
			emails = append(emails, *c.Email)
		}
		if c.PhoneNumber != nil {
			phones = append(phones, *c.PhoneNumber)
		}
		if !c.IsPrimary() {
			secondaryIDs = append(secondaryIDs, c.ID)
		}
	}

	return &Resolution{
		PrimaryID:    primaryID,
		Emails:       pstrings.DedupeAndTrim(emails),
		PhoneNumbers: pstrings.DedupeAndTrim(phones),
		SecondaryIDs: secondaryIDs,
	}
}

func normalize(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
