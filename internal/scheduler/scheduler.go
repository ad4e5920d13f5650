// Package scheduler wires up the cron job that periodically reloads the
// public job directory, so postings written by other instances show up.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"leja/board-service/internal/jobs"
)

// Refresher reloads a cache.
type Refresher interface {
	Refresh(ctx context.Context) ([]jobs.Posting, error)
}

// Scheduler wraps robfig/cron and manages the refresh loop.
type Scheduler struct {
	cron   *cron.Cron
	dir    Refresher
	spec   string // cron spec, e.g. "@every 5m"
	logger *slog.Logger
}

// New creates a Scheduler that fires every intervalMinutes minutes.
func New(dir Refresher, intervalMinutes int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		dir:    dir,
		spec:   fmt.Sprintf("@every %dm", intervalMinutes),
		logger: logger,
	}
}

// Spec returns the cron spec the scheduler registers.
func (s *Scheduler) Spec() string { return s.spec }

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("directory refresh scheduled", "spec", s.spec)
	return nil
}

// Stop shuts down the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("directory refresh stopped")
}

// RunOnce refreshes the directory; errors are logged, never returned.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	postings, err := s.dir.Refresh(ctx)
	if err != nil {
		s.logger.Error("scheduled directory refresh failed", "err", err)
		return
	}
	s.logger.Debug("scheduled directory refresh", "postings", len(postings))
}
