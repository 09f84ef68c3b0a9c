package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	applog "github.com/i474232898/snowfall-check/internal/log"
)

// Refresher is the periodic job, typically a refetch of the snowfall shown
// on screen.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context) error

func (f RefreshFunc) Refresh(ctx context.Context) error { return f(ctx) }

// Scheduler periodically runs a Refresher.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(refresher Refresher, interval, timeout time.Duration, logger *zap.SugaredLogger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		timeout:   timeout,
		logger:    applog.OrNop(logger),
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens one interval from now.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	s.logger.Debug("running refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warnw("refresh failed", "error", err)
		return
	}
	s.logger.Debug("completed refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
