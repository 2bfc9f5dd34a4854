package member

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"rosterbridge/internal/roster/models"
	"rosterbridge/pkg/platform/sentinel"
	"rosterbridge/pkg/requestcontext"
)

// InMemory keeps member rows in maps. Used by unit tests and dev mode.
type InMemory struct {
	mu        sync.RWMutex
	byKey     map[string]models.Member
	byDiscord map[string]string // discord ID -> row key
}

func NewInMemory() *InMemory {
	return &InMemory{
		byKey:     make(map[string]models.Member),
		byDiscord: make(map[string]string),
	}
}

func (s *InMemory) Upsert(ctx context.Context, member models.Member) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	if key, ok := s.byDiscord[member.DiscordID]; ok {
		existing := s.byKey[key]
		member.Key = existing.Key
		member.CreatedAt = existing.CreatedAt
	} else {
		member.Key = uuid.NewString()
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	s.byKey[member.Key] = member
	s.byDiscord[member.DiscordID] = member.Key

	stored := member
	return &stored, nil
}

func (s *InMemory) FindByDiscordID(_ context.Context, discordID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.byDiscord[discordID]; ok {
		member := s.byKey[key]
		return &member, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) DeleteByKey(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.byKey[key]
	if !ok {
		return false, nil
	}
	delete(s.byKey, key)
	delete(s.byDiscord, member.DiscordID)
	return true, nil
}

func (s *InMemory) DeleteByDiscordID(_ context.Context, discordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.byDiscord[discordID]
	if !ok {
		return false, nil
	}
	delete(s.byKey, key)
	delete(s.byDiscord, discordID)
	return true, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0, len(s.byKey))
	for _, member := range s.byKey {
		m := member
		out = append(out, &m)
	}
	return out, nil
}
