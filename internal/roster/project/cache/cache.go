// Package cache remembers the last projected role set per player so repeat
// projections can skip the external round-trip when nothing changed. Staleness
// is harmless: a miss only costs an extra idempotent grant.
package cache

import (
	"context"
	"sync"
	"time"

	"rosterbridge/internal/roster/models"
)

// RoleCache stores projected role sets keyed by Discord ID.
type RoleCache interface {
	Get(ctx context.Context, discordID string) ([]models.Role, bool, error)
	Set(ctx context.Context, discordID string, roles []models.Role, ttl time.Duration) error
	Invalidate(ctx context.Context, discordID string) error
}

// Equal reports whether two role sets match in order. Projection order is
// fixed, so positional comparison is enough.
func Equal(a, b []models.Role) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type memoryEntry struct {
	roles     []models.Role
	expiresAt time.Time
}

// InMemory is a process-local RoleCache for single-instance deployments and
// tests.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *InMemory) Get(_ context.Context, discordID string) ([]models.Role, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[discordID]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	roles := make([]models.Role, len(entry.roles))
	copy(roles, entry.roles)
	return roles, true, nil
}

func (c *InMemory) Set(_ context.Context, discordID string, roles []models.Role, ttl time.Duration) error {
	stored := make([]models.Role, len(roles))
	copy(stored, roles)
	c.mu.Lock()
	c.entries[discordID] = memoryEntry{roles: stored, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *InMemory) Invalidate(_ context.Context, discordID string) error {
	c.mu.Lock()
	delete(c.entries, discordID)
	c.mu.Unlock()
	return nil
}
