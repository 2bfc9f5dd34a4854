// Package store defines the persistence contracts for the roster entities.
// Stores are interface-driven so the reconciliation core can run against
// in-memory maps in tests and PostgreSQL in production without rewiring.
//
// All operations are single-key; there are no multi-row transactions across
// stores. Cross-entity consistency comes from write ordering in the integrity
// manager, so readers must tolerate keys that do not resolve.
package store

import (
	"context"

	"rosterbridge/internal/roster/models"
)

// MemberStore owns Member rows. Upserts are addressed by Discord ID (the
// stable external key); deletes by either the surrogate row key (integrity
// cleanup) or the Discord ID (membership revoked).
type MemberStore interface {
	// Upsert is idempotent: identical fields produce no observable change
	// beyond a touched update timestamp. An existing row keeps its Key.
	Upsert(ctx context.Context, member models.Member) (*models.Member, error)
	FindByDiscordID(ctx context.Context, discordID string) (*models.Member, error)
	// Deletes are idempotent; deleting an absent row returns false, not an error.
	DeleteByKey(ctx context.Context, key string) (bool, error)
	DeleteByDiscordID(ctx context.Context, discordID string) (bool, error)
	List(ctx context.Context) ([]*models.Member, error)
}

// PlayerStore owns Player rows, keyed by Discord ID. Players are created
// out-of-band by the league app and never deleted by this service.
type PlayerStore interface {
	Save(ctx context.Context, player models.Player) (*models.Player, error)
	FindByDiscordID(ctx context.Context, discordID string) (*models.Player, error)
	FindByName(ctx context.Context, discordName string) (*models.Player, error)
}

// TeamStore owns Team rows, keyed by unique name. Read-only from this
// service's perspective; Upsert/Delete exist for the out-of-band tooling and
// integration tests to share one contract.
type TeamStore interface {
	Upsert(ctx context.Context, team models.Team) (*models.Team, error)
	FindByName(ctx context.Context, name string) (*models.Team, error)
	Delete(ctx context.Context, name string) (bool, error)
}
