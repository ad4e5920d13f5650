// Package favorites is the candidate's bookmark ledger. A favorite is the
// existence of a (user, posting) record; toggling reads then writes.
package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leja/board-service/internal/jobs"
	"leja/board-service/internal/session"
)

// Store persists favorites per user email.
type Store interface {
	HasFavorite(ctx context.Context, email, jobID string) (bool, error)
	AddFavorite(ctx context.Context, email, jobID string, createdAt int64) error
	RemoveFavorite(ctx context.Context, email, jobID string) error
	// ListFavorites returns the bookmarked posting ids in no particular order.
	ListFavorites(ctx context.Context, email string) ([]string, error)
}

// Ledger toggles and lists favorites.
type Ledger struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewLedger returns a Ledger over store.
func NewLedger(store Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// IsFavorite reports whether email bookmarked jobID.
func (l *Ledger) IsFavorite(ctx context.Context, email, jobID string) (bool, error) {
	ok, err := l.store.HasFavorite(ctx, email, jobID)
	if err != nil {
		return false, fmt.Errorf("read favorite: %w", err)
	}
	return ok, nil
}

// Toggle flips the bookmark of jobID for the caller and returns the new state.
func (l *Ledger) Toggle(ctx context.Context, sess *session.Session, jobID string) (bool, error) {
	if err := session.RequireCandidate(sess); err != nil {
		return false, err
	}
	exists, err := l.IsFavorite(ctx, sess.Email, jobID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := l.store.RemoveFavorite(ctx, sess.Email, jobID); err != nil {
			l.logger.Error("remove favorite failed", "email", sess.Email, "jobId", jobID, "err", err)
			return true, fmt.Errorf("remove favorite: %w", err)
		}
		return false, nil
	}
	if err := l.store.AddFavorite(ctx, sess.Email, jobID, l.now().UnixMilli()); err != nil {
		l.logger.Error("add favorite failed", "email", sess.Email, "jobId", jobID, "err", err)
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return true, nil
}

// List returns the posting ids email bookmarked.
func (l *Ledger) List(ctx context.Context, email string) ([]string, error) {
	ids, err := l.store.ListFavorites(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return ids, nil
}

// Resolve keeps the postings whose id is in ids, in postings order. Ids that
// are not in postings are dropped.
func Resolve(ids []string, postings []jobs.Posting) []jobs.Posting {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	out := make([]jobs.Posting, 0, len(ids))
	for _, p := range postings {
		if _, ok := set[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
