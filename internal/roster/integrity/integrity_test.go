package integrity

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"rosterbridge/internal/roster/models"
	"rosterbridge/internal/roster/store/member"
	"rosterbridge/internal/roster/store/player"
	"rosterbridge/pkg/platform/sentinel"
)

type IntegritySuite struct {
	suite.Suite
	members *member.InMemory
	players *player.InMemory
	manager *Manager
	ctx     context.Context
}

func TestIntegritySuite(t *testing.T) {
	suite.Run(t, new(IntegritySuite))
}

func (s *IntegritySuite) SetupTest() {
	s.members = member.NewInMemory()
	s.players = player.NewInMemory()
	s.manager = New(s.members, s.players, slog.New(slog.DiscardHandler))
	s.ctx = context.Background()
}

func (s *IntegritySuite) TestRelinkUpdatesPlayerAndDeletesStaleMember() {
	// Player linked to a previous membership row.
	first, err := s.members.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)
	_, err = s.players.Save(s.ctx, models.Player{
		DiscordID: "u1", DiscordName: "alice", MemberKey: first.Key,
	})
	s.Require().NoError(err)

	// The person left and rejoined: fresh member row.
	_, err = s.members.DeleteByDiscordID(s.ctx, "u1")
	s.Require().NoError(err)
	second, err := s.members.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice9"})
	s.Require().NoError(err)
	s.Require().NotEqual(first.Key, second.Key)

	updated, err := s.manager.Relink(s.ctx, "u1", second.Key, "alice9")
	s.Require().NoError(err)
	s.Require().NotNil(updated)
	s.Equal(second.Key, updated.MemberKey)
	s.Equal("alice9", updated.DiscordName)
}

func (s *IntegritySuite) TestRelinkDeletesOldRowWhenItSurvives() {
	// Simulates the crash residue: the player's old member row still exists
	// under a different key (store-level scenario, not reachable through the
	// normal event order).
	old, err := s.members.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)
	_, err = s.players.Save(s.ctx, models.Player{
		DiscordID: "u1", DiscordName: "alice", MemberKey: old.Key,
	})
	s.Require().NoError(err)

	_, err = s.manager.Relink(s.ctx, "u1", "fresh-key", "alice")
	s.Require().NoError(err)

	// Old row is gone, player points at the new key.
	_, err = s.members.FindByDiscordID(s.ctx, "u1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	p, err := s.players.FindByDiscordID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("fresh-key", p.MemberKey)
}

func (s *IntegritySuite) TestRelinkNoPlayerIsNoop() {
	stored, err := s.members.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)

	updated, err := s.manager.Relink(s.ctx, "u1", stored.Key, "alice")
	s.Require().NoError(err)
	s.Nil(updated)

	// Member rows untouched.
	found, err := s.members.FindByDiscordID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(stored.Key, found.Key)
}

func (s *IntegritySuite) TestRelinkSameKeyIsIdempotent() {
	stored, err := s.members.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)
	_, err = s.players.Save(s.ctx, models.Player{
		DiscordID: "u1", DiscordName: "alice", MemberKey: stored.Key,
	})
	s.Require().NoError(err)

	for range 2 {
		updated, err := s.manager.Relink(s.ctx, "u1", stored.Key, "alice")
		s.Require().NoError(err)
		s.Equal(stored.Key, updated.MemberKey)
	}

	found, err := s.members.FindByDiscordID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(stored.Key, found.Key)
}

func (s *IntegritySuite) TestSweepHealsStaleLink() {
	live, err := s.members.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)
	_, err = s.players.Save(s.ctx, models.Player{
		DiscordID: "u1", DiscordName: "alice", MemberKey: "stale-key",
	})
	s.Require().NoError(err)

	healed, err := s.manager.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, healed)

	p, err := s.players.FindByDiscordID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(live.Key, p.MemberKey)
}

func (s *IntegritySuite) TestSweepIgnoresMembersWithoutPlayers() {
	_, err := s.members.Upsert(s.ctx, models.Member{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)

	healed, err := s.manager.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Zero(healed)
}
