package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rosterbridge/internal/roster/models"
	dErrors "rosterbridge/pkg/domain-errors"
)

const roleSetKeyPrefix = "roles:projected:"

// Redis is a RoleCache backed by Redis so multiple instances share projection
// state. Role sets are stored as JSON arrays with a TTL.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (c *Redis) Get(ctx context.Context, discordID string) ([]models.Role, bool, error) {
	raw, err := c.client.Get(ctx, roleSetKeyPrefix+discordID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "role cache get")
	}
	var roles []models.Role
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		// Treat undecodable entries as a miss; the next Set overwrites them.
		return nil, false, nil
	}
	return roles, true, nil
}

func (c *Redis) Set(ctx context.Context, discordID string, roles []models.Role, ttl time.Duration) error {
	raw, err := json.Marshal(roles)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role cache encode")
	}
	if err := c.client.Set(ctx, roleSetKeyPrefix+discordID, raw, ttl).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role cache set")
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context, discordID string) error {
	if err := c.client.Del(ctx, roleSetKeyPrefix+discordID).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role cache invalidate")
	}
	return nil
}
