package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rosterbridge/internal/roster/models"
	"rosterbridge/pkg/platform/sentinel"
	"rosterbridge/pkg/requestcontext"
)

// Postgres persists team rows in PostgreSQL. The roster is a TEXT[] of player
// Discord IDs; membership checks happen in Go, not SQL, so the column stays an
// opaque key list.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Upsert(ctx context.Context, team models.Team) (*models.Team, error) {
	now := requestcontext.Now(ctx)
	team.Roster = normalizeRoster(team.Roster)
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO teams (name, captain, vice_captain, roster, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (name) DO UPDATE
		SET captain      = EXCLUDED.captain,
		    vice_captain = EXCLUDED.vice_captain,
		    roster       = EXCLUDED.roster,
		    is_active    = EXCLUDED.is_active,
		    updated_at   = EXCLUDED.updated_at
		RETURNING name, captain, vice_captain, roster, is_active, created_at, updated_at`,
		team.Name, team.Captain, team.ViceCaptain, pq.Array(team.Roster), team.IsActive, now,
	)
	stored, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("upsert team: %w", err)
	}
	return stored, nil
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.Team, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, captain, vice_captain, roster, is_active, created_at, updated_at
		FROM teams WHERE name = $1`, name)
	team, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find team: %w", err)
	}
	return team, nil
}

func (s *Postgres) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("delete team: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete team: %w", err)
	}
	return affected > 0, nil
}

func scanTeam(row *sql.Row) (*models.Team, error) {
	var team models.Team
	if err := row.Scan(
		&team.Name, &team.Captain, &team.ViceCaptain, pq.Array(&team.Roster),
		&team.IsActive, &team.CreatedAt, &team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}
