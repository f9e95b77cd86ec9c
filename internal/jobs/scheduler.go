package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/handler"
)

// DefaultEventRetention is how long terminal bus events are kept before
// the daily sweep removes them.
const DefaultEventRetention = 30 * 24 * time.Hour

type eventPurger interface {
	PurgeCompleted(ctx context.Context, before time.Time) (int, error)
}

// SchedulerConfig holds configuration for the digest scheduler
type SchedulerConfig struct {
	Digests  handler.DigestRunner
	CronSpec string
	Timezone string
	Logger   *zap.Logger
	// Events, when set, is swept after each digest run: done, dead and
	// never-claimed pending events older than Retention are deleted.
	Events    eventPurger
	Retention time.Duration
}

// Scheduler fires the daily digest flows on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	digests   handler.DigestRunner
	events    eventPurger
	retention time.Duration
	spec      string
	logger    *zap.Logger

	// running guards against a tick overlapping a still-active run
	running atomic.Bool
}

// NewScheduler creates a scheduler in the configured timezone
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultEventRetention
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		digests:   cfg.Digests,
		events:    cfg.Events,
		retention: cfg.Retention,
		spec:      cfg.CronSpec,
		logger:    cfg.Logger,
	}, nil
}

// Start registers the digest job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("schedule digest job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("digest scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("digest scheduler stopped")
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("digest run still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	now := time.Now().UTC()
	s.runFlows(context.Background(), now)
}

func (s *Scheduler) runFlows(ctx context.Context, now time.Time) {
	start := time.Now()

	if err := s.digests.RunJobListingsDigest(ctx, now); err != nil {
		s.logger.Error("job listings digest failed", zap.Error(err))
	}
	if err := s.digests.RunApplicationsDigest(ctx, now); err != nil {
		s.logger.Error("applications digest failed", zap.Error(err))
	}

	if s.events != nil {
		purged, err := s.events.PurgeCompleted(ctx, now.Add(-s.retention))
		switch {
		case err != nil:
			s.logger.Error("event sweep failed", zap.Error(err))
		case purged > 0:
			s.logger.Info("swept terminal events", zap.Int("purged", purged))
		}
	}

	s.logger.Info("digest run complete",
		zap.Time("window_end", now),
		zap.Duration("duration", time.Since(start)),
	)
}
