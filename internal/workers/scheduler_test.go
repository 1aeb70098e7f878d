package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	*BaseWorker
	runs  atomic.Int64
	err   error
	panic bool
}

func newCountingWorker(name string, interval time.Duration, enabled bool) *countingWorker {
	return &countingWorker{BaseWorker: NewBaseWorker(name, interval, enabled)}
}

func (w *countingWorker) Run(ctx context.Context) error {
	w.runs.Add(1)
	if w.panic {
		panic("boom")
	}
	return w.err
}

func TestSchedulerRunsWorkerImmediately(t *testing.T) {
	s := NewScheduler()
	w := newCountingWorker("poller", time.Hour, true)
	s.Register(w)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	assert.Eventually(t, func() bool {
		return w.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSchedulerSkipsDisabledWorker(t *testing.T) {
	s := NewScheduler()
	w := newCountingWorker("disabled", 10*time.Millisecond, false)
	s.Register(w)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Equal(t, int64(0), w.runs.Load())
}

func TestSchedulerTicksOnInterval(t *testing.T) {
	s := NewScheduler()
	w := newCountingWorker("fast", 20*time.Millisecond, true)
	s.Register(w)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	assert.Eventually(t, func() bool {
		return w.runs.Load() >= 3
	}, time.Second, 10*time.Millisecond)
}

func TestSchedulerStopInterruptsWait(t *testing.T) {
	s := NewScheduler()
	w := newCountingWorker("slow", time.Hour, true)
	s.Register(w)

	require.NoError(t, s.Start(context.Background()))

	start := time.Now()
	require.NoError(t, s.Stop())
	assert.Less(t, time.Since(start), time.Second, "stop must not wait for the interval")
	assert.False(t, s.IsRunning())
}

func TestSchedulerSurvivesWorkerPanic(t *testing.T) {
	s := NewScheduler()
	w := newCountingWorker("panicky", 20*time.Millisecond, true)
	w.panic = true
	s.Register(w)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	assert.Eventually(t, func() bool {
		return w.runs.Load() >= 2
	}, time.Second, 10*time.Millisecond, "worker keeps running after a panic")
}

func TestSchedulerDoubleStart(t *testing.T) {
	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	assert.Error(t, s.Start(context.Background()))
}

func TestBaseWorkerHealth(t *testing.T) {
	w := NewBaseWorker("h", time.Minute, true)

	w.RecordRun()
	w.RecordError(assert.AnError)

	h := w.Health()
	assert.Equal(t, int64(2), h.RunCount)
	assert.Equal(t, int64(1), h.ErrorCount)
	assert.Equal(t, assert.AnError, h.LastError)
	assert.False(t, h.LastRun.IsZero())
}
