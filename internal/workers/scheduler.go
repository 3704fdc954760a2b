// Package workers
package workers

import (
	"context"
	"time"

	"healthd/internal/logger"
)

type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	log logger.Logger
}

func NewScheduler(log logger.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// RunByDuration runs worker once right away and then every dur until ctx
// is done. Runs never overlap: a run that outlasts dur delays the next
// tick, and each run is bounded by a dur timeout.
func (s *Scheduler) RunByDuration(ctx context.Context, dur time.Duration, worker Worker) error {
	ticker := time.NewTicker(dur)
	defer ticker.Stop()

	s.log.Info("worker: started", "name", worker.Name(), "interval", dur)

	s.tick(ctx, dur, worker)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("worker: stopping", "name", worker.Name())
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, dur, worker)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, dur time.Duration, worker Worker) {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, dur)
	defer cancel()

	if err := worker.Run(timeoutCtx); err != nil {
		s.log.Error("worker failed", "name", worker.Name(), "error", err)
	}

	s.log.Debug("worker finished", "name", worker.Name(), "time", time.Since(start))
}
