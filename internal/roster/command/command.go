// Package command is the operator-facing write surface: explicit role
// grant/revoke requests coming from the companion web app, as opposed to the
// automatic projection path.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rosterbridge/internal/roster/authority"
	"rosterbridge/internal/roster/models"
	"rosterbridge/internal/roster/store"
	dErrors "rosterbridge/pkg/domain-errors"
	"rosterbridge/pkg/platform/sentinel"
	"rosterbridge/pkg/requestcontext"
)

// CacheInvalidator drops cached projection state after a manual role change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, discordID string)
}

// Service applies single role commands against the guild authority.
type Service struct {
	guild   authority.Client
	players store.PlayerStore
	cache   CacheInvalidator
	logger  *slog.Logger
}

func New(guild authority.Client, players store.PlayerStore, cache CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{guild: guild, players: players, cache: cache, logger: logger}
}

// AssignRole grants or revokes one role for one Discord ID. Validation errors
// come back as bad-request codes; authority failures pass through with their
// external code intact.
func (s *Service) AssignRole(ctx context.Context, discordID string, role models.Role, action models.RoleAction) error {
	if discordID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "discordId is required")
	}
	if !models.ValidRole(role) {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown role %q", role))
	}
	if !models.ValidAction(action) {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown action %q", action))
	}

	var err error
	switch action {
	case models.ActionAdd:
		err = s.guild.GrantRole(ctx, discordID, role)
	case models.ActionRemove:
		err = s.guild.RevokeRole(ctx, discordID, role)
	}
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, discordID)
	}
	s.logger.InfoContext(ctx, "role command applied",
		"request_id", requestcontext.RequestID(ctx),
		"subject", requestcontext.Subject(ctx),
		"discord_id", discordID,
		"role", role,
		"action", action,
	)
	return nil
}

// AssignRoleByName resolves a player's Discord ID from their unique discord
// name, then applies the role command. The lookup is case-insensitive.
func (s *Service) AssignRoleByName(ctx context.Context, discordName string, role models.Role, action models.RoleAction) error {
	if discordName == "" {
		return dErrors.New(dErrors.CodeBadRequest, "discordName is required")
	}
	found, err := s.players.FindByName(ctx, discordName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no player named %q", discordName))
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find player by name")
	}
	return s.AssignRole(ctx, found.DiscordID, role, action)
}
