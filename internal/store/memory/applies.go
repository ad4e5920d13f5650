package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"leja/board-service/internal/apply"
)

// Applies implements apply.Store.
type Applies struct {
	mu   sync.RWMutex
	rows map[string]apply.Application
	// Writes counts successful writes.
	Writes int
	// Fail, when set, is returned by every call.
	Fail error
}

// NewApplies returns an empty application store.
func NewApplies() *Applies { return &Applies{rows: make(map[string]apply.Application)} }

func (s *Applies) CreateApply(_ context.Context, a *apply.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.rows[a.ID] = *a
	s.Writes++
	return nil
}

func (s *Applies) GetApply(_ context.Context, id string) (*apply.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	a, ok := s.rows[id]
	if !ok {
		return nil, apply.ErrNotFound
	}
	return &a, nil
}

func (s *Applies) UpdateApply(_ context.Context, id, owner string, patch apply.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	a, ok := s.rows[id]
	if !ok || a.Owner != owner {
		return apply.ErrNotFound
	}
	patch.ApplyTo(&a)
	s.rows[id] = a
	s.Writes++
	return nil
}

func (s *Applies) ClearUnread(_ context.Context, id, forWhom string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return false, s.Fail
	}
	a, ok := s.rows[id]
	if !ok || forWhom == "" || a.UnreadFor != forWhom {
		return false, nil
	}
	a.UnreadFor = ""
	s.rows[id] = a
	s.Writes++
	return true, nil
}

func (s *Applies) ListByOwner(_ context.Context, owner string) ([]apply.Application, error) {
	return s.list(func(a apply.Application) bool { return a.Owner == owner })
}

func (s *Applies) ListByCandidate(_ context.Context, email string) ([]apply.Application, error) {
	return s.list(func(a apply.Application) bool {
		return a.Candidate == email || a.CandidateEmail == email
	})
}

func (s *Applies) list(keep func(apply.Application) bool) ([]apply.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := make([]apply.Application, 0)
	for _, a := range s.rows {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ apply.Store = (*Applies)(nil)
