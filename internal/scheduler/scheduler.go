package scheduler

import (
	"context"
	"fmt"
	"time"

	"focusquest/internal/jobs"
	"focusquest/internal/logger"

	"github.com/robfig/cron/v3"
)

// Sweeper runs one adherence sweep
type Sweeper interface {
	Run(ctx context.Context, now time.Time) (jobs.SweepResult, error)
}

// Cleaner deletes expired notifications
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Scheduler triggers the periodic background jobs
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	sweeper Sweeper
	cleaner Cleaner
	now     func() time.Time
}

// New registers the sweep every interval and a daily notification cleanup at 03:00 in loc
func New(sweeper Sweeper, cleaner Cleaner, interval time.Duration, loc *time.Location) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid sweep interval %s", interval)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
		ctx:     ctx,
		cancel:  cancel,
		sweeper: sweeper,
		cleaner: cleaner,
		now:     time.Now,
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.sweep); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule adherence sweep: %w", err)
	}
	if _, err := s.cron.AddFunc("0 3 * * *", s.cleanup); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule notification cleanup: %w", err)
	}
	return s, nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Log.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
}

// Stop stops scheduling, cancels running jobs and waits for them until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	s.cancel()
	select {
	case <-done:
		logger.Log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) sweep() {
	if _, err := s.sweeper.Run(s.ctx, s.now()); err != nil {
		logger.Log.WithError(err).Error("adherence sweep failed")
	}
}

func (s *Scheduler) cleanup() {
	n, err := s.cleaner.CleanupExpired(s.ctx)
	if err != nil {
		logger.Log.WithError(err).Error("notification cleanup failed")
		return
	}
	logger.Log.WithField("deleted", n).Info("expired notifications removed")
}

// cronLogger adapts logrus to cron.Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.WithField("cron", fmt.Sprint(keysAndValues...)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.WithError(err).WithField("cron", fmt.Sprint(keysAndValues...)).Error(msg)
}
