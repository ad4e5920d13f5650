// Package memory holds in-process implementations of every store port. They
// back the memory driver and serve as fakes in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"leja/board-service/internal/jobs"
)

// Jobs implements jobs.Store.
type Jobs struct {
	mu   sync.RWMutex
	rows map[string]jobs.Posting
	// Fail, when set, is returned by every call.
	Fail error
}

// NewJobs returns an empty posting store.
func NewJobs() *Jobs { return &Jobs{rows: make(map[string]jobs.Posting)} }

func (s *Jobs) CreateJob(_ context.Context, p *jobs.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.rows[p.ID] = *p
	return nil
}

func (s *Jobs) UpdateJob(_ context.Context, id, owner string, patch jobs.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	p, ok := s.rows[id]
	if !ok || p.Owner != owner {
		return jobs.ErrNotFound
	}
	patch.ApplyTo(&p)
	s.rows[id] = p
	return nil
}

func (s *Jobs) GetJob(_ context.Context, id string) (*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	p, ok := s.rows[id]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	return &p, nil
}

func (s *Jobs) ListByOwner(_ context.Context, owner string) ([]jobs.Posting, error) {
	return s.list(func(p jobs.Posting) bool { return p.Owner == owner })
}

func (s *Jobs) ListByStatus(_ context.Context, statuses []jobs.Status) ([]jobs.Posting, error) {
	return s.list(func(p jobs.Posting) bool {
		for _, st := range statuses {
			if p.Status == st {
				return true
			}
		}
		return false
	})
}

func (s *Jobs) list(keep func(jobs.Posting) bool) ([]jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := make([]jobs.Posting, 0)
	for _, p := range s.rows {
		if keep(p) {
			out = append(out, p)
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

var _ jobs.Store = (*Jobs)(nil)
