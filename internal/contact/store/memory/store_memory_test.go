package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"linkage/internal/contact"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *Store
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = New()
}

func strPtr(v string) *string { return &v }

func (s *InMemoryStoreSuite) seed(c *contact.Contact) *contact.Contact {
	created, err := s.store.Create(context.Background(), c)
	s.Require().NoError(err)
	return created
}

func (s *InMemoryStoreSuite) TestCreateAssignsIdentityAndTimestamps() {
	created := s.seed(&contact.Contact{
		Email:          strPtr("a@example.com"),
		LinkPrecedence: contact.LinkPrecedencePrimary,
	})

	s.False(created.ID.IsNil())
	s.False(created.CreatedAt.IsZero())
	s.Equal(created.CreatedAt, created.UpdatedAt)
}

func (s *InMemoryStoreSuite) TestCreateRespectsSeededTimestamps() {
	created := s.seed(&contact.Contact{
		Email:          strPtr("a@example.com"),
		LinkPrecedence: contact.LinkPrecedencePrimary,
		CreatedAt:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Equal(2021, created.CreatedAt.Year())
}

func (s *InMemoryStoreSuite) TestFindMatchingBehavior() {
	s.Run("empty criteria returns nothing without error", func() {
		matched, err := s.store.FindMatching(context.Background(), nil, nil)
		s.Require().NoError(err)
		s.Empty(matched)
	})

	s.Run("matches on email OR phone", func() {
		byEmail := s.seed(&contact.Contact{
			Email:          strPtr("or@example.com"),
			PhoneNumber:    strPtr("111"),
			LinkPrecedence: contact.LinkPrecedencePrimary,
			CreatedAt:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		byPhone := s.seed(&contact.Contact{
			Email:          strPtr("other@example.com"),
			PhoneNumber:    strPtr("222"),
			LinkPrecedence: contact.LinkPrecedencePrimary,
			CreatedAt:      time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		s.seed(&contact.Contact{
			Email:          strPtr("unmatched@example.com"),
			PhoneNumber:    strPtr("333"),
			LinkPrecedence: contact.LinkPrecedencePrimary,
		})

		matched, err := s.store.FindMatching(context.Background(), strPtr("or@example.com"), strPtr("222"))
		s.Require().NoError(err)
		s.Require().Len(matched, 2)
		// Ordered by creation time.
		s.Equal(byEmail.ID, matched[0].ID)
		s.Equal(byPhone.ID, matched[1].ID)
	})

	s.Run("single criterion ignores the other field", func() {
		s.seed(&contact.Contact{
			Email:          strPtr("only@example.com"),
			LinkPrecedence: contact.LinkPrecedencePrimary,
		})
		matched, err := s.store.FindMatching(context.Background(), strPtr("only@example.com"), nil)
		s.Require().NoError(err)
		s.Len(matched, 1)
	})
}

func (s *InMemoryStoreSuite) TestUpdateBehavior() {
	s.Run("applies patch and bumps UpdatedAt", func() {
		primary := s.seed(&contact.Contact{
			Email:          strPtr("p@example.com"),
			LinkPrecedence: contact.LinkPrecedencePrimary,
			CreatedAt:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		other := s.seed(&contact.Contact{
			Email:          strPtr("q@example.com"),
			LinkPrecedence: contact.LinkPrecedencePrimary,
			CreatedAt:      time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		})

		secondary := contact.LinkPrecedenceSecondary
		updated, err := s.store.Update(context.Background(), other.ID, contact.Patch{
			LinkPrecedence: &secondary,
			LinkedID:       &primary.ID,
		})
		s.Require().NoError(err)
		s.Equal(contact.LinkPrecedenceSecondary, updated.LinkPrecedence)
		s.Require().NotNil(updated.LinkedID)
		s.Equal(primary.ID, *updated.LinkedID)
		s.True(updated.UpdatedAt.After(updated.CreatedAt))
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.Update(context.Background(), id.NewContactID(), contact.Patch{})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("nil patch fields leave values untouched", func() {
		primary := s.seed(&contact.Contact{
			Email:          strPtr("keep@example.com"),
			LinkPrecedence: contact.LinkPrecedencePrimary,
		})
		updated, err := s.store.Update(context.Background(), primary.ID, contact.Patch{})
		s.Require().NoError(err)
		s.Equal(contact.LinkPrecedencePrimary, updated.LinkPrecedence)
		s.Nil(updated.LinkedID)
	})
}

func (s *InMemoryStoreSuite) TestFindAllLinkedOrdering() {
	primary := s.seed(&contact.Contact{
		Email:          strPtr("head@example.com"),
		LinkPrecedence: contact.LinkPrecedencePrimary,
		CreatedAt:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	link := primary.ID
	later := s.seed(&contact.Contact{
		PhoneNumber:    strPtr("2"),
		LinkPrecedence: contact.LinkPrecedenceSecondary,
		LinkedID:       &link,
		CreatedAt:      time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	earlier := s.seed(&contact.Contact{
		PhoneNumber:    strPtr("1"),
		LinkPrecedence: contact.LinkPrecedenceSecondary,
		LinkedID:       &link,
		CreatedAt:      time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	// Unrelated cluster must not leak in.
	s.seed(&contact.Contact{
		Email:          strPtr("other@example.com"),
		LinkPrecedence: contact.LinkPrecedencePrimary,
	})

	cluster, err := s.store.FindAllLinked(context.Background(), primary.ID)
	s.Require().NoError(err)
	s.Require().Len(cluster, 3)
	s.Equal(primary.ID, cluster[0].ID)
	s.Equal(earlier.ID, cluster[1].ID)
	s.Equal(later.ID, cluster[2].ID)
}

func (s *InMemoryStoreSuite) TestReturnedContactsAreDetached() {
	created := s.seed(&contact.Contact{
		Email:          strPtr("orig@example.com"),
		LinkPrecedence: contact.LinkPrecedencePrimary,
	})

	*created.Email = "mutated@example.com"

	matched, err := s.store.FindMatching(context.Background(), strPtr("orig@example.com"), nil)
	s.Require().NoError(err)
	s.Len(matched, 1, "mutating a returned contact must not affect stored state")
}

func (s *InMemoryStoreSuite) TestRunInTxHonorsCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.store.RunInTx(ctx, func(context.Context) error {
		s.Fail("fn must not run when ctx is already cancelled")
		return nil
	})
	s.Require().ErrorIs(err, context.Canceled)
}
