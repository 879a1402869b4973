package thumbs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"photoflow/internal/logging"
)

// Scheduler runs retry sweeps on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler registers a sweep job on the given cron spec (standard five
// field syntax or descriptors like "@every 10m").
func NewScheduler(spec string, service *Service, owner string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		processed, err := service.Sweep(context.Background(), owner)
		if err != nil {
			logger.Error("retry sweep failed", logging.Error(err))
			return
		}
		if processed > 0 {
			logger.Info("retry sweep complete", logging.Int("processed", processed))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running sweeps in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
