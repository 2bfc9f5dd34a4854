package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rosterbridge/internal/roster/models"
	"rosterbridge/pkg/platform/sentinel"
	"rosterbridge/pkg/requestcontext"
)

// Postgres persists player rows in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const playerColumns = `discord_id, discord_name, member_key, team_key, status,
	cooldown_ends, join_date, release_date, created_at, updated_at`

func (s *Postgres) Save(ctx context.Context, player models.Player) (*models.Player, error) {
	if player.Status == "" {
		player.Status = models.StatusAvailable
	}
	now := requestcontext.Now(ctx)
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO players (discord_id, discord_name, member_key, team_key, status,
			cooldown_ends, join_date, release_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (discord_id) DO UPDATE
		SET discord_name  = EXCLUDED.discord_name,
		    member_key    = EXCLUDED.member_key,
		    team_key      = EXCLUDED.team_key,
		    status        = EXCLUDED.status,
		    cooldown_ends = EXCLUDED.cooldown_ends,
		    join_date     = EXCLUDED.join_date,
		    release_date  = EXCLUDED.release_date,
		    updated_at    = EXCLUDED.updated_at
		RETURNING `+playerColumns,
		player.DiscordID, player.DiscordName, player.MemberKey, player.TeamKey,
		string(player.Status), nullTime(player.CooldownEnds), nullTime(player.JoinDate),
		nullTime(player.ReleaseDate), now,
	)
	stored, err := scanPlayer(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("save player: %w", err)
	}
	return stored, nil
}

func (s *Postgres) FindByDiscordID(ctx context.Context, discordID string) (*models.Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE discord_id = $1`, discordID)
	return findOne(row, "find player")
}

func (s *Postgres) FindByName(ctx context.Context, discordName string) (*models.Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE LOWER(discord_name) = LOWER($1)`, discordName)
	return findOne(row, "find player by name")
}

func findOne(row *sql.Row, op string) (*models.Player, error) {
	player, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return player, nil
}

func scanPlayer(row *sql.Row) (*models.Player, error) {
	var player models.Player
	var status string
	var cooldownEnds, joinDate, releaseDate sql.NullTime
	if err := row.Scan(
		&player.DiscordID, &player.DiscordName, &player.MemberKey, &player.TeamKey,
		&status, &cooldownEnds, &joinDate, &releaseDate,
		&player.CreatedAt, &player.UpdatedAt,
	); err != nil {
		return nil, err
	}
	player.Status = models.PlayerStatus(status)
	player.CooldownEnds = timePtr(cooldownEnds)
	player.JoinDate = timePtr(joinDate)
	player.ReleaseDate = timePtr(releaseDate)
	return &player, nil
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	return &value.Time
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
