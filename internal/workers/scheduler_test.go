package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthd/internal/logger"
)

type countingWorker struct {
	runs    atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	err     error
}

func (w *countingWorker) Name() string { return "counting" }

func (w *countingWorker) Run(ctx context.Context) error {
	if w.running.Add(1) > 1 {
		w.overlap.Store(true)
	}
	defer w.running.Add(-1)

	w.runs.Add(1)
	return w.err
}

func TestRunByDurationRunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &countingWorker{}
	done := make(chan error, 1)
	go func() {
		done <- NewScheduler(logger.Discard()).RunByDuration(ctx, time.Hour, w)
	}()

	require.Eventually(t, func() bool { return w.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunByDurationKeepsTickingOnFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &countingWorker{err: errors.New("source gone")}
	go func() {
		_ = NewScheduler(logger.Discard()).RunByDuration(ctx, 10*time.Millisecond, w)
	}()

	require.Eventually(t, func() bool { return w.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.False(t, w.overlap.Load())
}
