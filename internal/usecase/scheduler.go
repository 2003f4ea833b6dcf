package usecase

import (
	"context"
	"log/slog"
	"time"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/logging"
	"ContentRefresher/internal/ports"
)

// Scheduler wires the cron driver with the background job runner.
type Scheduler struct {
	driver ports.Scheduler
	jobs   *JobRunner
	status domain.Status
	logger *slog.Logger
}

// NewScheduler returns a helper that queues a refresh of status on every tick.
func NewScheduler(driver ports.Scheduler, jobs *JobRunner, status domain.Status, log *slog.Logger) *Scheduler {
	if status == "" {
		status = domain.StatusScraped
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Scheduler{driver: driver, jobs: jobs, status: status, logger: log.With("component", "scheduler")}
}

// Start registers the refresh with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.jobs == nil {
		return nil
	}

	job := func(trigger time.Time) {
		queued, err := s.jobs.SubmitByStatus(ctx, s.status)
		if err != nil {
			s.logger.Warn("scheduled refresh not queued", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("scheduled refresh queued", "trigger", trigger, "job_id", queued.ID, "status", s.status)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
