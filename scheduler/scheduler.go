package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"otodom_analyzer/config"
	"otodom_analyzer/logging"
)

// Triggerable allows workers to be triggered on a schedule or manually
type Triggerable interface {
	Trigger()
}

type Scheduler struct {
	cfg     config.SchedulerConfig
	cron    *cron.Cron
	checker Triggerable
}

func New(cfg config.SchedulerConfig, checker Triggerable) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		cron:    cron.New(),
		checker: checker,
	}
}

// Start runs the upstream check once immediately, then on the cron schedule
// until ctx is cancelled. An empty schedule leaves only the startup check.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.Cron != "" {
		if _, err := s.cron.AddFunc(s.cfg.Cron, s.checker.Trigger); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		logging.Infof("Starting upstream checks with cron: %s", s.cfg.Cron)
		s.cron.Start()
		go func() {
			<-ctx.Done()
			s.cron.Stop()
		}()
	} else {
		logging.Infof("No upstream check schedule configured, checking at startup only")
	}

	s.checker.Trigger()
	return nil
}

// Stop halts the cron runner and waits for a running job to return
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
