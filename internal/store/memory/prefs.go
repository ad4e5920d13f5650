package memory

import (
	"context"
	"sync"

	"leja/board-service/internal/prefs"
)

// Prefs implements prefs.Store.
type Prefs struct {
	mu   sync.Mutex
	rows map[string]prefs.Values
}

// NewPrefs returns an empty preference store.
func NewPrefs() *Prefs { return &Prefs{rows: make(map[string]prefs.Values)} }

func (s *Prefs) Load(_ context.Context, clientID string) (prefs.Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.rows[clientID]
	if v.Pending != nil {
		p := *v.Pending
		v.Pending = &p
	}
	return v, nil
}

func (s *Prefs) SetRole(_ context.Context, clientID string, role prefs.Role) error {
	return s.update(clientID, func(v *prefs.Values) { v.Role = role })
}

func (s *Prefs) SetOrg(_ context.Context, clientID, org string) error {
	return s.update(clientID, func(v *prefs.Values) { v.Org = org })
}

func (s *Prefs) SetPending(_ context.Context, clientID string, p prefs.PendingAction) error {
	return s.update(clientID, func(v *prefs.Values) { v.Pending = &p })
}

func (s *Prefs) TakePending(_ context.Context, clientID string) (*prefs.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.rows[clientID]
	p := v.Pending
	v.Pending = nil
	s.rows[clientID] = v
	return p, nil
}

func (s *Prefs) ClearIdentity(_ context.Context, clientID string) error {
	return s.update(clientID, func(v *prefs.Values) { v.Role, v.Org = "", "" })
}

func (s *Prefs) update(clientID string, fn func(*prefs.Values)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.rows[clientID]
	fn(&v)
	s.rows[clientID] = v
	return nil
}

var _ prefs.Store = (*Prefs)(nil)
