package team

import (
	"context"
	"sync"

	"rosterbridge/internal/roster/models"
	"rosterbridge/pkg/platform/sentinel"
	"rosterbridge/pkg/requestcontext"
)

// InMemory keeps team rows in a map keyed by name.
type InMemory struct {
	mu    sync.RWMutex
	teams map[string]models.Team
}

func NewInMemory() *InMemory {
	return &InMemory{teams: make(map[string]models.Team)}
}

func (s *InMemory) Upsert(ctx context.Context, team models.Team) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	if existing, ok := s.teams[team.Name]; ok {
		team.CreatedAt = existing.CreatedAt
	} else {
		team.CreatedAt = now
	}
	team.UpdatedAt = now
	team.Roster = normalizeRoster(team.Roster)
	s.teams[team.Name] = team

	stored := team
	stored.Roster = append([]string(nil), team.Roster...)
	return &stored, nil
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if team, ok := s.teams[name]; ok {
		found := team
		found.Roster = append([]string(nil), team.Roster...)
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[name]; !ok {
		return false, nil
	}
	delete(s.teams, name)
	return true, nil
}
