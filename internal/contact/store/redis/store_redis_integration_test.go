//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"linkage/internal/contact"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/sentinel"
	"linkage/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	container *containers.RedisContainer
	store     *Store
	ctx       context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.container = containers.NewRedisContainer(s.T())
	s.store = New(s.container.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.container.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) seed(email, phone *string, precedence contact.LinkPrecedence, linkedID *id.ContactID, createdAt time.Time) *contact.Contact {
	created, err := s.store.Create(s.ctx, &contact.Contact{
		Email:          email,
		PhoneNumber:    phone,
		LinkedID:       linkedID,
		LinkPrecedence: precedence,
		CreatedAt:      createdAt,
	})
	s.Require().NoError(err)
	return created
}

func str(v string) *string { return &v }

func (s *RedisStoreSuite) TestCreateIndexesBothFields() {
	created := s.seed(str("doc@brown.io"), str("911"), contact.LinkPrecedencePrimary, nil, time.Time{})

	byEmail, err := s.store.FindMatching(s.ctx, str("doc@brown.io"), nil)
	s.Require().NoError(err)
	s.Require().Len(byEmail, 1)
	s.Equal(created.ID, byEmail[0].ID)

	byPhone, err := s.store.FindMatching(s.ctx, nil, str("911"))
	s.Require().NoError(err)
	s.Require().Len(byPhone, 1)
	s.Equal(created.ID, byPhone[0].ID)
}

func (s *RedisStoreSuite) TestFindMatchingUnionsWithoutDuplicates() {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	older := s.seed(str("doc@brown.io"), str("911"), contact.LinkPrecedencePrimary, nil, base)
	newer := s.seed(str("marty@hillvalley.io"), str("911"), contact.LinkPrecedenceSecondary, &older.ID, base.Add(time.Hour))

	found, err := s.store.FindMatching(s.ctx, str("doc@brown.io"), str("911"))
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.Equal(older.ID, found[0].ID)
	s.Equal(newer.ID, found[1].ID)
}

func (s *RedisStoreSuite) TestUpdateMovesLinkedIndex() {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	oldPrimary := s.seed(str("doc@brown.io"), nil, contact.LinkPrecedencePrimary, nil, base)
	newPrimary := s.seed(nil, str("911"), contact.LinkPrecedencePrimary, nil, base.Add(time.Hour))
	secondary := s.seed(str("marty@hillvalley.io"), nil, contact.LinkPrecedenceSecondary, &oldPrimary.ID, base.Add(2*time.Hour))

	updated, err := s.store.Update(s.ctx, secondary.ID, contact.Patch{LinkedID: &newPrimary.ID})
	s.Require().NoError(err)
	s.Require().NotNil(updated.LinkedID)
	s.Equal(newPrimary.ID, *updated.LinkedID)

	oldCluster, err := s.store.FindAllLinked(s.ctx, oldPrimary.ID)
	s.Require().NoError(err)
	s.Require().Len(oldCluster, 1)
	s.Equal(oldPrimary.ID, oldCluster[0].ID)

	newCluster, err := s.store.FindAllLinked(s.ctx, newPrimary.ID)
	s.Require().NoError(err)
	s.Require().Len(newCluster, 2)
	s.Equal(newPrimary.ID, newCluster[0].ID)
	s.Equal(secondary.ID, newCluster[1].ID)
}

func (s *RedisStoreSuite) TestUpdateUnknownContactReturnsNotFound() {
	_, err := s.store.Update(s.ctx, id.NewContactID(), contact.Patch{})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestFindAllLinkedOrdersSecondariesByAge() {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	primary := s.seed(str("doc@brown.io"), nil, contact.LinkPrecedencePrimary, nil, base)
	second := s.seed(nil, str("111"), contact.LinkPrecedenceSecondary, &primary.ID, base.Add(2*time.Hour))
	first := s.seed(nil, str("222"), contact.LinkPrecedenceSecondary, &primary.ID, base.Add(time.Hour))

	linked, err := s.store.FindAllLinked(s.ctx, primary.ID)
	s.Require().NoError(err)
	s.Require().Len(linked, 3)
	s.Equal(primary.ID, linked[0].ID)
	s.Equal(first.ID, linked[1].ID)
	s.Equal(second.ID, linked[2].ID)
}

func (s *RedisStoreSuite) TestRunInTxRejectsCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.store.RunInTx(ctx, func(context.Context) error {
		s.Fail("transaction body must not run after cancellation")
		return nil
	})
	s.ErrorIs(err, context.Canceled)
}
