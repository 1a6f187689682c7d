package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/services/index"
)

// buildTimeout bounds a scheduled build run
const buildTimeout = 30 * time.Minute

// Scheduler triggers periodic index builds. Because builds are
// idempotent, a schedule firing against Ready indexes is a cheap no-op.
type Scheduler struct {
	indexes *index.Manager
	cron    *cron.Cron
	logger  arbor.ILogger
}

// NewScheduler creates an index build scheduler
func NewScheduler(indexes *index.Manager, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		indexes: indexes,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
	}
}

// Start begins scheduled builds on the given cron expression
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: every 6 hours
		schedule = "0 0 */6 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runBuild()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Index build scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Index build scheduler stopped")
}

func (s *Scheduler) runBuild() {
	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	s.logger.Info().Msg("Starting scheduled index build")

	if err := s.indexes.Build(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled index build failed")
		return
	}

	for _, status := range s.indexes.Status() {
		s.logger.Info().
			Str("kind", string(status.Kind)).
			Str("phase", string(status.Phase)).
			Int("passages", status.Passages).
			Msg("Scheduled index build completed")
	}
}
