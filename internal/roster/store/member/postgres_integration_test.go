//go:build integration

package member_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rosterbridge/internal/roster/models"
	"rosterbridge/internal/roster/store"
	"rosterbridge/internal/roster/store/member"
	"rosterbridge/pkg/platform/sentinel"
	"rosterbridge/pkg/testutil/containers"
)

type PostgresMemberSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *member.Postgres
	ctx      context.Context
}

func TestPostgresMemberSuite(t *testing.T) {
	suite.Run(t, new(PostgresMemberSuite))
}

func (s *PostgresMemberSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(store.Migrate(s.ctx, s.postgres.DB))
	s.store = member.NewPostgres(s.postgres.DB)
}

func (s *PostgresMemberSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(s.ctx, "members"))
}

func (s *PostgresMemberSuite) TestUpsertRoundTrip() {
	joined := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stored, err := s.store.Upsert(s.ctx, models.Member{
		DiscordID:   "u1",
		DiscordName: "alice",
		JoinedAt:    &joined,
	})
	s.Require().NoError(err)
	s.NotEmpty(stored.Key)

	found, err := s.store.FindByDiscordID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(stored.Key, found.Key)
	s.Equal("alice", found.DiscordName)
	s.Require().NotNil(found.JoinedAt)
	s.True(found.JoinedAt.Equal(joined))
}

func (s *PostgresMemberSuite) TestUpsertKeepsKey() {
	first, err := s.store.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)

	second, err := s.store.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice2"})
	s.Require().NoError(err)
	s.Equal(first.Key, second.Key)
	s.Equal("alice2", second.DiscordName)

	members, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(members, 1)
}

func (s *PostgresMemberSuite) TestDeleteByKeyIdempotent() {
	stored, err := s.store.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)

	existed, err := s.store.DeleteByKey(s.ctx, stored.Key)
	s.Require().NoError(err)
	s.True(existed)

	existed, err = s.store.DeleteByKey(s.ctx, stored.Key)
	s.Require().NoError(err)
	s.False(existed)

	_, err = s.store.FindByDiscordID(s.ctx, "u1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresMemberSuite) TestDeleteByDiscordID() {
	_, err := s.store.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)

	existed, err := s.store.DeleteByDiscordID(s.ctx, "u1")
	s.Require().NoError(err)
	s.True(existed)

	existed, err = s.store.DeleteByDiscordID(s.ctx, "u1")
	s.Require().NoError(err)
	s.False(existed)
}
