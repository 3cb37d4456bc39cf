package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	"git.home.luguber.info/inful/chronodeck/internal/logfields"
)

// Scheduler wraps the gocron scheduler that runs the autosave job.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler driven by clk.
func NewScheduler(clk clock.Clock) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithClock(clock.OrReal(clk)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	slog.Debug("Starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	slog.Debug("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery registers fn to run every interval and returns the job id.
// A run that is still in progress when the next one is due is skipped.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, fn func()) (uuid.UUID, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create %s job: %w", name, err)
	}
	slog.Debug("Scheduled job", logfields.JobName(name), logfields.JobID(job.ID().String()),
		slog.Duration("interval", interval))
	return job.ID(), nil
}

// Reschedule changes the interval of an existing job.
func (s *Scheduler) Reschedule(id uuid.UUID, name string, interval time.Duration, fn func()) error {
	_, err := s.scheduler.Update(id,
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule %s job: %w", name, err)
	}
	slog.Info("Rescheduled job", logfields.JobName(name), logfields.JobID(id.String()),
		slog.Duration("interval", interval))
	return nil
}
