package memory

import (
	"context"
	"slices"
	"sync"

	"quiz-session-engine/internal/domain"
)

// ProfileStore is an in-memory implementation of profile.Store.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.Profile),
	}
}

func (s *ProfileStore) Load(_ context.Context, userID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	p = cloneProfile(p)
	return &p, nil
}

func (s *ProfileStore) Save(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = cloneProfile(p)
	return nil
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.CategoriesCompleted = slices.Clone(p.CategoriesCompleted)
	p.LastDailyRewards = slices.Clone(p.LastDailyRewards)
	return p
}
