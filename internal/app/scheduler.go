/**
 * @description
 * Cron scheduler setup for background maintenance jobs.
 */
package app

import (
	"context"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/LuisRivera1699/wedding-presents/internal/logging"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
	jobs   int
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger logging.Logger) *Scheduler {
	cronLogger := logging.NewCronAdapter(logger)
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)), cron.WithLogger(cronLogger))

	return &Scheduler{
		cron:   c,
		logger: logging.Component(logger, "scheduler"),
	}
}

// Register schedules job under schedule. An empty schedule leaves the job disabled.
func (s *Scheduler) Register(name, schedule string, job func()) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		s.logger.Info().Str("job", name).Msg("job disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		s.logger.Error().Err(err).Str("job", name).Str("schedule", schedule).Msg("failed to schedule job")
		return err
	}
	s.jobs++
	s.logger.Info().Str("job", name).Str("schedule", schedule).Msg("scheduled job")
	return nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return s.jobs
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
