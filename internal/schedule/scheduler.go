// Package schedule triggers periodic pipeline runs from a cron expression in
// the workspace tool configuration.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler owns one cron entry that invokes the given job. The job is
// whatever the caller wires in, typically a full pipeline dispatch.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New validates the cron expression and prepares the scheduler without
// starting it.
func New(spec string, job func(ctx context.Context), logger *slog.Logger) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		logger.Info("scheduled pipeline run starting", "schedule", spec)
		job(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid ci_schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins firing the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
