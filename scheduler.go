package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// refreshTimeout bounds one scheduled cycle.
const refreshTimeout = 2 * time.Minute

type refresher interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler triggers periodic dashboard refreshes.
type Scheduler struct {
	cron      *cron.Cron
	dashboard refresher
	schedule  string
	logger    *slog.Logger
	// refreshJob is swapped in tests.
	refreshJob func()
}

// NewScheduler validates schedule (a cron spec or "@every 10m") up front.
func NewScheduler(dashboard refresher, schedule string, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{
		cron:      c,
		dashboard: dashboard,
		schedule:  schedule,
		logger:    logger,
	}
	s.refreshJob = s.runRefreshJob
	if _, err := c.AddFunc(schedule, func() { s.refreshJob() }); err != nil {
		return nil, &ConfigError{Key: "REFRESH_SCHEDULE", Reason: err.Error()}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("scheduler: starting", "schedule", s.schedule)
	s.cron.Start()
}

// Stop cancels future runs and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("scheduler: stopping")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runRefreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := s.dashboard.RefreshAll(ctx); err != nil {
		s.logger.Warn("scheduler: refresh cycle had failures", "error", err)
		return
	}
	s.logger.Debug("scheduler: refresh cycle completed")
}
