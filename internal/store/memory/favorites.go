package memory

import (
	"context"
	"sort"
	"sync"

	"leja/board-service/internal/favorites"
)

// Favorites implements favorites.Store.
type Favorites struct {
	mu   sync.RWMutex
	rows map[string]map[string]int64 // email → jobID → createdAt
	// Fail, when set, is returned by every call.
	Fail error
}

// NewFavorites returns an empty favorites store.
func NewFavorites() *Favorites { return &Favorites{rows: make(map[string]map[string]int64)} }

func (s *Favorites) HasFavorite(_ context.Context, email, jobID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return false, s.Fail
	}
	_, ok := s.rows[email][jobID]
	return ok, nil
}

func (s *Favorites) AddFavorite(_ context.Context, email, jobID string, createdAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if s.rows[email] == nil {
		s.rows[email] = make(map[string]int64)
	}
	s.rows[email][jobID] = createdAt
	return nil
}

func (s *Favorites) RemoveFavorite(_ context.Context, email, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	delete(s.rows[email], jobID)
	return nil
}

func (s *Favorites) ListFavorites(_ context.Context, email string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	ids := make([]string, 0, len(s.rows[email]))
	for id := range s.rows[email] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ favorites.Store = (*Favorites)(nil)
