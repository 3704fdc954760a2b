package system

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/prometheus/procfs"

	"healthd/internal/domain"
	"healthd/internal/logger"
)

// userHZ is the tick rate procfs divides by when it reports seconds.
const userHZ = 100

// ProcFS reads cpu counters through github.com/prometheus/procfs.
type ProcFS struct {
	fs  procfs.FS
	log logger.Logger
}

func NewProcFS(mount string, log logger.Logger) (*ProcFS, error) {
	fs, err := procfs.NewFS(mount)
	if err != nil {
		return nil, fmt.Errorf("open procfs at %s: %w", mount, err)
	}

	return &ProcFS{fs: fs, log: log}, nil
}

func (p *ProcFS) ReadCounters(ctx context.Context) ([]domain.CounterRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stat, err := p.fs.Stat()
	if err != nil {
		p.log.Debug("failed to read procfs stat", "error", err.Error())
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	ids := make([]int64, 0, len(stat.CPU))
	for id := range stat.CPU {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([]domain.CounterRow, 0, len(ids)+1)
	rows = append(rows, domain.CounterRow{Identifier: "cpu", Fields: ticks(stat.CPUTotal)})
	for _, id := range ids {
		rows = append(rows, domain.CounterRow{
			Identifier: fmt.Sprintf("cpu%d", id),
			Fields:     ticks(stat.CPU[id]),
		})
	}

	return rows, nil
}

func ticks(s procfs.CPUStat) []uint64 {
	seconds := []float64{
		s.User, s.Nice, s.System, s.Idle, s.Iowait,
		s.IRQ, s.SoftIRQ, s.Steal, s.Guest, s.GuestNice,
	}

	out := make([]uint64, len(seconds))
	for i, v := range seconds {
		out[i] = uint64(math.Round(v * userHZ))
	}
	return out
}
