package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rosterbridge/internal/roster/models"
	"rosterbridge/pkg/platform/sentinel"
	"rosterbridge/pkg/requestcontext"
)

// Postgres persists member rows in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const memberColumns = `key, discord_id, discord_name, joined_at, created_at, updated_at`

func (s *Postgres) Upsert(ctx context.Context, member models.Member) (*models.Member, error) {
	now := requestcontext.Now(ctx)
	// The generated key only sticks on insert; a conflicting row keeps its own.
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO members (key, discord_id, discord_name, joined_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (discord_id) DO UPDATE
		SET discord_name = EXCLUDED.discord_name,
		    joined_at    = EXCLUDED.joined_at,
		    updated_at   = EXCLUDED.updated_at
		RETURNING `+memberColumns,
		uuid.NewString(), member.DiscordID, member.DiscordName, nullTime(member.JoinedAt), now,
	)
	stored, err := scanMember(row)
	if err != nil {
		return nil, fmt.Errorf("upsert member: %w", err)
	}
	return stored, nil
}

func (s *Postgres) FindByDiscordID(ctx context.Context, discordID string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE discord_id = $1`, discordID)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return member, nil
}

func (s *Postgres) DeleteByKey(ctx context.Context, key string) (bool, error) {
	return s.deleteWhere(ctx, `DELETE FROM members WHERE key = $1`, key)
}

func (s *Postgres) DeleteByDiscordID(ctx context.Context, discordID string) (bool, error) {
	return s.deleteWhere(ctx, `DELETE FROM members WHERE discord_id = $1`, discordID)
}

func (s *Postgres) deleteWhere(ctx context.Context, query, arg string) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, arg)
	if err != nil {
		return false, fmt.Errorf("delete member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete member: %w", err)
	}
	return affected > 0, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	var member models.Member
	var joinedAt sql.NullTime
	if err := row.Scan(
		&member.Key, &member.DiscordID, &member.DiscordName, &joinedAt,
		&member.CreatedAt, &member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if joinedAt.Valid {
		member.JoinedAt = &joinedAt.Time
	}
	return &member, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
