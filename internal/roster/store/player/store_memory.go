package player

import (
	"context"
	"strings"
	"sync"

	"rosterbridge/internal/roster/models"
	"rosterbridge/pkg/platform/sentinel"
	"rosterbridge/pkg/requestcontext"
)

// InMemory keeps player rows in maps keyed by Discord ID, with a secondary
// name index mirroring the unique discord_name constraint.
type InMemory struct {
	mu      sync.RWMutex
	players map[string]models.Player
	byName  map[string]string // lowercased name -> discord ID
}

func NewInMemory() *InMemory {
	return &InMemory{
		players: make(map[string]models.Player),
		byName:  make(map[string]string),
	}
}

func (s *InMemory) Save(ctx context.Context, player models.Player) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player.Status == "" {
		player.Status = models.StatusAvailable
	}
	nameKey := strings.ToLower(player.DiscordName)
	if owner, taken := s.byName[nameKey]; taken && owner != player.DiscordID {
		return nil, sentinel.ErrConflict
	}

	now := requestcontext.Now(ctx)
	if existing, ok := s.players[player.DiscordID]; ok {
		player.CreatedAt = existing.CreatedAt
		delete(s.byName, strings.ToLower(existing.DiscordName))
	} else {
		player.CreatedAt = now
	}
	player.UpdatedAt = now

	s.players[player.DiscordID] = player
	s.byName[nameKey] = player.DiscordID

	stored := player
	return &stored, nil
}

func (s *InMemory) FindByDiscordID(_ context.Context, discordID string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if player, ok := s.players[discordID]; ok {
		return &player, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByName(_ context.Context, discordName string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byName[strings.ToLower(discordName)]; ok {
		player := s.players[id]
		return &player, nil
	}
	return nil, sentinel.ErrNotFound
}
