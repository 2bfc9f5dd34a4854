// Package integrity keeps Player.MemberKey consistent with the live Member row
// for a Discord ID and garbage-collects stale Member rows.
package integrity

import (
	"context"
	"errors"
	"log/slog"

	"rosterbridge/internal/roster/models"
	"rosterbridge/internal/roster/store"
	dErrors "rosterbridge/pkg/domain-errors"
	"rosterbridge/pkg/platform/sentinel"
)

// Manager repairs member/player cross-references. Callers serialize per
// Discord ID (the reconciler holds a keyed lock); the manager itself performs
// only single-row operations in a fixed order, so a crash between the player
// write and the stale-member delete leaves at most one orphan, collected by
// the next relink or by Sweep.
type Manager struct {
	members store.MemberStore
	players store.PlayerStore
	logger  *slog.Logger
}

func New(members store.MemberStore, players store.PlayerStore, logger *slog.Logger) *Manager {
	return &Manager{members: members, players: players, logger: logger}
}

// Relink points the player for discordID at the member row newMemberKey and
// refreshes the display name, then deletes the previously linked member row if
// it differs. Returns (nil, nil) when no player exists for discordID: members
// without a league player are routine, not an error.
func (m *Manager) Relink(ctx context.Context, discordID, newMemberKey, displayName string) (*models.Player, error) {
	player, err := m.players.FindByDiscordID(ctx, discordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up player for relink")
	}

	oldKey := player.MemberKey
	player.MemberKey = newMemberKey
	player.DiscordName = displayName

	updated, err := m.players.Save(ctx, *player)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "relink player")
	}

	// Only after the player write commits: a crash before this point must not
	// lose the row the player still references.
	if oldKey != "" && oldKey != newMemberKey {
		if _, err := m.members.DeleteByKey(ctx, oldKey); err != nil {
			// The new link is already in place; the stale row is an orphan the
			// sweep will collect. Report, don't fail the relink.
			m.logger.WarnContext(ctx, "failed to delete stale member row",
				"discord_id", discordID,
				"member_key", oldKey,
				"error", err,
			)
		}
	}

	return updated, nil
}

// Sweep walks all member rows and repairs players whose MemberKey went stale
// (a leave-and-rejoin observed by the store but not yet by a relink, or a
// crash inside Relink). Heals by pointing the player at the live row; the
// discord_id unique constraint guarantees no second row survives to delete.
// Safe to run anytime, at any frequency.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	members, err := m.members.List(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "list members for sweep")
	}

	healed := 0
	for _, member := range members {
		player, err := m.players.FindByDiscordID(ctx, member.DiscordID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue // member without a player is legitimate
			}
			return healed, dErrors.Wrap(err, dErrors.CodeInternal, "look up player during sweep")
		}
		if player.MemberKey == member.Key {
			continue
		}

		stale := player.MemberKey
		player.MemberKey = member.Key
		if _, err := m.players.Save(ctx, *player); err != nil {
			return healed, dErrors.Wrap(err, dErrors.CodeInternal, "heal player member link")
		}
		if stale != "" {
			// Usually a no-op: the stale row was already removed on leave.
			if _, err := m.members.DeleteByKey(ctx, stale); err != nil {
				return healed, dErrors.Wrap(err, dErrors.CodeInternal, "delete stale member row")
			}
		}
		healed++
		m.logger.InfoContext(ctx, "healed stale player member link",
			"discord_id", member.DiscordID,
			"member_key", member.Key,
			"stale_key", stale,
		)
	}
	return healed, nil
}
