package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthd/internal/domain"
	"healthd/internal/event"
	"healthd/internal/logger"
)

const (
	EventSnapshotPublished = "metrics.snapshot_published"
	EventCycleSkipped      = "metrics.cycle_skipped"
	EventRowRejected       = "metrics.row_rejected"
)

type SnapshotPublished struct {
	Snapshot domain.Snapshot
}

type CycleSkipped struct {
	Err error
}

type RowRejected struct {
	Identifier string
	Err        error
}

// Sampler is the only writer of the calculator state and of the current
// snapshot. It is meant to be driven by workers.Scheduler, which never
// overlaps two Run calls.
type Sampler struct {
	source domain.CounterSource
	calc   *Calculator
	store  *SnapshotStore
	bus    *event.Bus
	log    logger.Logger

	now func() time.Time
}

func NewSampler(source domain.CounterSource, store *SnapshotStore, bus *event.Bus, log logger.Logger) *Sampler {
	return &Sampler{
		source: source,
		calc:   NewCalculator(),
		store:  store,
		bus:    bus,
		log:    log,
		now:    time.Now,
	}
}

func (s *Sampler) Name() string {
	return "sampler"
}

// Run performs one sampling cycle. When the counter source fails the cycle
// is skipped and the previous snapshot stays current.
func (s *Sampler) Run(ctx context.Context) error {
	rows, err := s.source.ReadCounters(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.publish(EventCycleSkipped, CycleSkipped{Err: err})
		}
		return fmt.Errorf("sampler: cycle skipped: %w", err)
	}

	samples := make([]domain.UtilizationSample, 0, len(rows))

	for _, row := range rows {
		core, ok := domain.ParseCoreID(row.Identifier)
		if !ok {
			s.log.Debug("sampler: ignoring non-counter line", "identifier", row.Identifier)
			continue
		}

		percent, err := s.calc.Compute(core, row.Fields)
		if err != nil {
			s.log.Warn("sampler: row skipped", "identifier", row.Identifier, "error", err)
			s.publish(EventRowRejected, RowRejected{Identifier: row.Identifier, Err: err})
			continue
		}

		samples = append(samples, domain.UtilizationSample{Core: core, Percent: percent})
	}

	snapshot := domain.Snapshot{
		Samples: samples,
		Line:    domain.RenderLine(samples),
		TakenAt: s.now().UTC(),
	}

	s.store.Set(snapshot)
	s.publish(EventSnapshotPublished, SnapshotPublished{Snapshot: snapshot})

	s.log.Debug("sampler: snapshot published", "cores", len(samples), "line", snapshot.Line)

	return nil
}

func (s *Sampler) publish(name string, ev any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(name, ev)
}
