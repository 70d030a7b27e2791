package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the background jobs on cron schedules
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Entry
}

func NewScheduler() *Scheduler {
	logger := logrus.WithField("component", "Scheduler")
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
		logger: logger,
	}
}

// Register adds a job under a cron spec such as "@every 5m"
func (s *Scheduler) Register(name, spec string, run func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := run(context.Background()); err != nil {
			s.logger.WithField("job", name).WithError(err).Warn("Scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s with %q: %w", name, spec, err)
	}
	s.logger.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Job scheduled")
	return nil
}

// Entries returns the number of scheduled jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
