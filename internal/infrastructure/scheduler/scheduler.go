// Package scheduler implements background job scheduling for the
// LinguaSpark API. Periodic jobs keep derived state fresh, most
// importantly the cached leaderboard snapshot.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/linguaspark/linguaspark-api/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	Run(ctx context.Context) error
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the Scheduler.
type Config struct {
	// Timezone for schedule calculations (default: UTC).
	Timezone *time.Location

	// JobTimeout bounds each job run (default: 1 minute).
	JobTimeout time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// Scheduler manages and executes periodic jobs on top of gocron.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	jobTimeout time.Duration
	log        *logger.Logger
}

// New creates a new Scheduler.
func New(cfg Config) *Scheduler {
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}
	timeout := cfg.JobTimeout
	if timeout == 0 {
		timeout = time.Minute
	}
	log := cfg.Logger
	if log == nil {
		log = logger.New(logger.Options{})
	}

	s := gocron.NewScheduler(tz)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler:  s,
		jobTimeout: timeout,
		log:        log.With(logger.Component("scheduler")),
	}
}

// Every registers a job to run at the given interval. The first run
// happens after one interval, not immediately.
func (s *Scheduler) Every(interval time.Duration, job Job) error {
	_, err := s.scheduler.Every(interval).Do(func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}

	return nil
}

// runJob executes one job run with a bounded context.
func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		s.log.Error("job failed",
			logger.String("job", job.Name()),
			logger.Latency(elapsed),
			logger.Err(err),
		)
		return
	}

	s.log.Debug("job completed",
		logger.String("job", job.Name()),
		logger.Latency(elapsed),
	)
}

// Start begins executing scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", logger.Int("jobs", len(s.scheduler.Jobs())))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.log.Info("scheduler stopped")
}
