package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied idempotently at startup. Full migration tooling is owned
// by the deploy pipeline; this keeps dev and integration-test databases usable
// without it.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		key          TEXT PRIMARY KEY,
		discord_id   TEXT NOT NULL UNIQUE,
		discord_name TEXT NOT NULL,
		joined_at    TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		discord_id    TEXT PRIMARY KEY,
		discord_name  TEXT NOT NULL,
		member_key    TEXT NOT NULL DEFAULT '',
		team_key      TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'available',
		cooldown_ends TIMESTAMPTZ,
		join_date     TIMESTAMPTZ,
		release_date  TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	// Names are unique ignoring case, matching the in-memory store's index.
	`CREATE UNIQUE INDEX IF NOT EXISTS players_discord_name_lower_idx
		ON players (LOWER(discord_name))`,
	`CREATE TABLE IF NOT EXISTS teams (
		name         TEXT PRIMARY KEY,
		captain      TEXT NOT NULL,
		vice_captain TEXT NOT NULL,
		roster       TEXT[] NOT NULL DEFAULT '{}',
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the roster schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply roster schema: %w", err)
		}
	}
	return nil
}
