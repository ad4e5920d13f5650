package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"leja/board-service/internal/auth"
)

// DefaultLimit caps the number of controllers a Registry keeps.
const DefaultLimit = 10000

// Registry keeps one Controller per client id. Past its limit the least
// recently used controller is dropped.
type Registry struct {
	deps Deps

	mu    sync.Mutex
	limit int
	tick  uint64
	byID  map[string]*entry
}

type entry struct {
	c    *Controller
	used uint64
}

// NewRegistry returns an empty registry whose controllers share deps.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Registry{deps: deps, limit: DefaultLimit, byID: make(map[string]*entry)}
}

// SetLimit changes the capacity, evicting as needed. n < 1 is ignored.
func (r *Registry) SetLimit(n int) {
	if n < 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = n
	r.evictLocked()
}

// For returns the controller of clientID, creating it on first use.
func (r *Registry) For(clientID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tick++
	if e, ok := r.byID[clientID]; ok {
		e.used = r.tick
		return e.c
	}
	e := &entry{c: NewController(r.deps), used: r.tick}
	r.byID[clientID] = e
	r.evictLocked()
	return e.c
}

// Peek returns the controller of clientID without creating one.
func (r *Registry) Peek(clientID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[clientID]
	if !ok {
		return nil, false
	}
	r.tick++
	e.used = r.tick
	return e.c, true
}

// Forget drops the controller of clientID.
func (r *Registry) Forget(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, clientID)
}

// Len returns the number of tracked clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *Registry) evictLocked() {
	for len(r.byID) > r.limit {
		var (
			oldestID string
			oldest   uint64
			found    bool
		)
		for id, e := range r.byID {
			if !found || e.used < oldest {
				oldestID, oldest, found = id, e.used, true
			}
		}
		delete(r.byID, oldestID)
	}
}

// Attach subscribes the registry to provider's auth events and returns the
// unsubscribe func.
func (r *Registry) Attach(provider auth.Provider) func() {
	return provider.Subscribe(r.HandleAuthEvent)
}

// HandleAuthEvent sends every controller of a principal that signed out back
// through the view gates, so none stays on a gated view.
func (r *Registry) HandleAuthEvent(ev auth.Event) {
	if ev.Kind != auth.EventSignedOut {
		return
	}
	r.mu.Lock()
	affected := make([]*Controller, 0)
	for _, e := range r.byID {
		if email, _ := e.c.principal(); email == ev.Principal.Email {
			affected = append(affected, e.c)
		}
	}
	r.mu.Unlock()

	for _, c := range affected {
		if _, active := c.principal(); active == Home || active == Listings {
			c.mu.Lock()
			c.email = ""
			c.mu.Unlock()
			continue
		}
		if _, err := c.SignedOut(context.Background()); err != nil && !errors.Is(err, ErrStale) {
			r.deps.Logger.Warn("re-navigate after sign-out failed", "err", err)
		}
	}
}
