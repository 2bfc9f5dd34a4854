// Package project derives guild roles from roster state. Projection is
// one-way: it grants the roles the database implies and never revokes, so a
// stale read can only cost an extra idempotent grant.
package project

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"rosterbridge/internal/roster/authority"
	"rosterbridge/internal/roster/models"
	"rosterbridge/internal/roster/project/cache"
	"rosterbridge/internal/roster/project/metrics"
	"rosterbridge/internal/roster/store"
	dErrors "rosterbridge/pkg/domain-errors"
	"rosterbridge/pkg/platform/sentinel"
)

const defaultCacheTTL = 5 * time.Minute

// Projector computes and applies the role set a player should hold.
type Projector struct {
	players store.PlayerStore
	teams   store.TeamStore
	guild   authority.Client
	cache   cache.RoleCache
	metrics *metrics.Metrics
	logger  *slog.Logger

	cacheTTL time.Duration
	group    singleflight.Group
}

type Option func(*Projector)

// WithCache enables role-set caching so unchanged projections skip the guild
// round-trip.
func WithCache(c cache.RoleCache) Option {
	return func(p *Projector) { p.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Projector) { p.metrics = m }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Projector) {
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

func New(players store.PlayerStore, teams store.TeamStore, guild authority.Client, logger *slog.Logger, opts ...Option) *Projector {
	p := &Projector{
		players:  players,
		teams:    teams,
		guild:    guild,
		logger:   logger,
		cacheTTL: defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProjectRoles grants the player the roles their roster state implies, in a
// fixed order: PLAYER first, then CAPTAIN, then VICE_CAPTAIN. Grants are
// evaluated independently; a failed grant does not stop later ones, and the
// first failure is returned once all have been attempted.
//
// Concurrent projections for the same Discord ID are coalesced: grants are
// idempotent on the guild side, so sharing one in-flight result is safe.
func (p *Projector) ProjectRoles(ctx context.Context, discordID string) error {
	_, err, _ := p.group.Do(discordID, func() (any, error) {
		return nil, p.project(ctx, discordID)
	})
	return err
}

func (p *Projector) project(ctx context.Context, discordID string) error {
	start := time.Now()
	defer func() { p.metrics.ObserveProjectLatency(time.Since(start)) }()

	desired, err := p.desiredRoles(ctx, discordID)
	if err != nil || len(desired) == 0 {
		return err
	}

	if p.cache != nil {
		cached, ok, cacheErr := p.cache.Get(ctx, discordID)
		if cacheErr != nil {
			p.logger.WarnContext(ctx, "role cache read failed", "discord_id", discordID, "error", cacheErr)
		} else if ok && cache.Equal(cached, desired) {
			p.metrics.IncrementCacheSkip()
			return nil
		}
	}

	var firstErr error
	for _, role := range desired {
		if grantErr := p.guild.GrantRole(ctx, discordID, role); grantErr != nil {
			p.metrics.IncrementGrant(string(role), "error")
			p.logger.ErrorContext(ctx, "role grant failed",
				"discord_id", discordID,
				"role", role,
				"error", grantErr,
			)
			if firstErr == nil {
				firstErr = grantErr
			}
			continue
		}
		p.metrics.IncrementGrant(string(role), "ok")
	}

	if firstErr == nil && p.cache != nil {
		if cacheErr := p.cache.Set(ctx, discordID, desired, p.cacheTTL); cacheErr != nil {
			p.logger.WarnContext(ctx, "role cache write failed", "discord_id", discordID, "error", cacheErr)
		}
	}
	return firstErr
}

// desiredRoles resolves the role set from roster state. A missing player or a
// player without a team projects nothing. A team reference that no longer
// resolves is reported and projects nothing; the sweep and out-of-band tooling
// own the repair.
func (p *Projector) desiredRoles(ctx context.Context, discordID string) ([]models.Role, error) {
	player, err := p.players.FindByDiscordID(ctx, discordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if player.TeamKey == "" {
		return nil, nil
	}

	team, err := p.teams.FindByName(ctx, player.TeamKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		p.metrics.IncrementDanglingRef()
		p.logger.WarnContext(ctx, "player references missing team",
			"discord_id", discordID,
			"team", player.TeamKey,
			"error", dErrors.New(dErrors.CodeDanglingRef, "team key does not resolve"),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	roles := []models.Role{models.RolePlayer}
	if team.Captain == player.DiscordID {
		roles = append(roles, models.RoleCaptain)
	}
	if team.ViceCaptain == player.DiscordID {
		roles = append(roles, models.RoleViceCaptain)
	}
	return roles, nil
}

// Invalidate drops any cached role set for the player. Called by the
// reconciler when membership state changes underneath a projection.
func (p *Projector) Invalidate(ctx context.Context, discordID string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx, discordID); err != nil {
		p.logger.WarnContext(ctx, "role cache invalidate failed", "discord_id", discordID, "error", err)
	}
}
