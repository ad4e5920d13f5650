package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Lister is the read side the directory refreshes from.
type Lister interface {
	ListByStatus(ctx context.Context, statuses []Status) ([]Posting, error)
}

// Snapshot is an immutable view of the directory cache.
type Snapshot struct {
	Postings    []Posting `json:"postings"`
	Version     uint64    `json:"version"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// Directory is the process-wide cache of public postings (published and
// occupied), newest first. A refresh replaces the cache wholesale; a refresh
// that started before the installed one is discarded.
type Directory struct {
	store  Lister
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	snap      Snapshot
	started   uint64 // refreshes begun
	installed uint64 // sequence of the refresh currently installed

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewDirectory creates an empty directory over store.
func NewDirectory(store Lister, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		store:  store,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Refresh reloads the public postings and notifies subscribers. On failure the
// previous cache stays in place.
func (d *Directory) Refresh(ctx context.Context) ([]Posting, error) {
	d.mu.Lock()
	d.started++
	seq := d.started
	d.mu.Unlock()

	postings, err := d.store.ListByStatus(ctx, PublicStatuses)
	if err != nil {
		d.logger.Error("directory refresh failed", "err", err)
		return nil, fmt.Errorf("refresh directory: %w", err)
	}

	d.mu.Lock()
	if seq < d.installed {
		snap, installed := d.snap, d.installed
		d.mu.Unlock()
		d.logger.Debug("directory refresh superseded", "seq", seq, "installed", installed)
		return clonePostings(snap.Postings), nil
	}
	d.installed = seq
	d.snap = Snapshot{
		Postings:    postings,
		Version:     d.snap.Version + 1,
		RefreshedAt: d.now(),
	}
	snap := d.snap
	d.mu.Unlock()

	d.logger.Debug("directory refreshed", "postings", len(postings), "version", snap.Version)
	d.notify(snap)
	return clonePostings(postings), nil
}

// Snapshot returns a copy of the current cache.
func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.snap
	s.Postings = clonePostings(s.Postings)
	return s
}

// Filter applies c to the cached postings.
func (d *Directory) Filter(c Criteria) []Posting {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Filter(d.snap.Postings, c)
}

// Find looks a posting up by id in the cache.
func (d *Directory) Find(id string) (Posting, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.snap.Postings {
		if p.ID == id {
			return p, true
		}
	}
	return Posting{}, false
}

// Subscribe registers fn to run after every installed refresh. The returned
// func unsubscribes.
func (d *Directory) Subscribe(fn func(Snapshot)) func() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		delete(d.subs, id)
	}
}

func (d *Directory) notify(s Snapshot) {
	d.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func clonePostings(in []Posting) []Posting {
	if in == nil {
		return []Posting{}
	}
	out := make([]Posting, len(in))
	copy(out, in)
	return out
}
