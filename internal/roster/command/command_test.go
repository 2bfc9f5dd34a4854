package command

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"rosterbridge/internal/roster/models"
	"rosterbridge/internal/roster/store/player"
	dErrors "rosterbridge/pkg/domain-errors"
)

type call struct {
	op        string
	discordID string
	role      models.Role
}

type fakeGuild struct {
	calls []call
	err   error
}

func (g *fakeGuild) FetchMembers(context.Context) ([]models.MembershipSnapshot, error) {
	return nil, nil
}

func (g *fakeGuild) GrantRole(_ context.Context, discordID string, role models.Role) error {
	g.calls = append(g.calls, call{op: "grant", discordID: discordID, role: role})
	return g.err
}

func (g *fakeGuild) RevokeRole(_ context.Context, discordID string, role models.Role) error {
	g.calls = append(g.calls, call{op: "revoke", discordID: discordID, role: role})
	return g.err
}

type fakeInvalidator struct {
	invalidated []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, discordID string) {
	f.invalidated = append(f.invalidated, discordID)
}

type CommandSuite struct {
	suite.Suite
	guild   *fakeGuild
	players *player.InMemory
	cache   *fakeInvalidator
	service *Service
	ctx     context.Context
}

func TestCommandSuite(t *testing.T) {
	suite.Run(t, new(CommandSuite))
}

func (s *CommandSuite) SetupTest() {
	s.guild = &fakeGuild{}
	s.players = player.NewInMemory()
	s.cache = &fakeInvalidator{}
	s.service = New(s.guild, s.players, s.cache, slog.New(slog.DiscardHandler))
	s.ctx = context.Background()
}

func (s *CommandSuite) TestAddGrantsRole() {
	err := s.service.AssignRole(s.ctx, "u1", models.RoleCaptain, models.ActionAdd)
	s.Require().NoError(err)
	s.Equal([]call{{op: "grant", discordID: "u1", role: models.RoleCaptain}}, s.guild.calls)
	s.Equal([]string{"u1"}, s.cache.invalidated)
}

func (s *CommandSuite) TestRemoveRevokesRole() {
	err := s.service.AssignRole(s.ctx, "u1", models.RolePlayer, models.ActionRemove)
	s.Require().NoError(err)
	s.Equal([]call{{op: "revoke", discordID: "u1", role: models.RolePlayer}}, s.guild.calls)
}

func (s *CommandSuite) TestInvalidActionRejected() {
	err := s.service.AssignRole(s.ctx, "u1", models.RolePlayer, "toggle")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	s.Empty(s.guild.calls)
}

func (s *CommandSuite) TestInvalidRoleRejected() {
	err := s.service.AssignRole(s.ctx, "u1", "ADMIN", models.ActionAdd)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	s.Empty(s.guild.calls)
}

func (s *CommandSuite) TestMissingDiscordIDRejected() {
	err := s.service.AssignRole(s.ctx, "", models.RolePlayer, models.ActionAdd)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *CommandSuite) TestAssignByNameResolvesDiscordID() {
	_, err := s.players.Save(s.ctx, models.Player{DiscordID: "u1", DiscordName: "alice"})
	s.Require().NoError(err)

	err = s.service.AssignRoleByName(s.ctx, "Alice", models.RoleCaptain, models.ActionAdd)
	s.Require().NoError(err)
	s.Equal([]call{{op: "grant", discordID: "u1", role: models.RoleCaptain}}, s.guild.calls)
	s.Equal([]string{"u1"}, s.cache.invalidated)
}

func (s *CommandSuite) TestAssignByUnknownNameIsNotFound() {
	err := s.service.AssignRoleByName(s.ctx, "ghost", models.RolePlayer, models.ActionAdd)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
	s.Empty(s.guild.calls)
}

func (s *CommandSuite) TestAssignByEmptyNameRejected() {
	err := s.service.AssignRoleByName(s.ctx, "", models.RolePlayer, models.ActionAdd)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *CommandSuite) TestAuthorityErrorPassesThrough() {
	wantErr := dErrors.New(dErrors.CodeExternal, "guild unreachable")
	s.guild.err = wantErr

	err := s.service.AssignRole(s.ctx, "u1", models.RolePlayer, models.ActionAdd)
	s.Require().ErrorIs(err, wantErr)
	s.Empty(s.cache.invalidated)
}
