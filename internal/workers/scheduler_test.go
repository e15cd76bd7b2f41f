package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock worker for testing
type mockWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newMockWorker(name string, interval time.Duration, enabled bool) *mockWorker {
	return &mockWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
		runFunc:    func(ctx context.Context) error { return nil },
	}
}

func (m *mockWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&m.runCount, 1)
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return nil
}

func (m *mockWorker) GetRunCount() int {
	return int(atomic.LoadInt32(&m.runCount))
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("test-worker", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	// Immediate run plus at least one tick
	assert.GreaterOrEqual(t, worker.GetRunCount(), 2)
}

func TestScheduler_DisabledWorkerNeverRuns(t *testing.T) {
	scheduler := NewScheduler()

	enabled := newMockWorker("enabled-worker", 100*time.Millisecond, true)
	disabled := newMockWorker("disabled-worker", 100*time.Millisecond, false)

	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.GetRunCount(), 0)
	assert.Equal(t, 0, disabled.GetRunCount())
}

func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("test-worker", 100*time.Millisecond, true))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
}

func TestScheduler_PanickingWorkerIsContained(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("panic-worker", 100*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error { panic("boom") }
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	// The panic is recovered and the loop keeps ticking.
	assert.GreaterOrEqual(t, worker.GetRunCount(), 2)
}

func TestScheduler_CannotStartTwice(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("test-worker", 100*time.Millisecond, true))

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Error(t, scheduler.Start(context.Background()))

	scheduler.Stop()
}

func TestScheduler_GetWorkers(t *testing.T) {
	scheduler := NewScheduler()

	scheduler.RegisterWorker(newMockWorker("worker-1", 100*time.Millisecond, true))
	scheduler.RegisterWorker(newMockWorker("worker-2", 200*time.Millisecond, false))

	workers := scheduler.GetWorkers()
	assert.Len(t, workers, 2)
	assert.Equal(t, "worker-1", workers[0].Name())
	assert.Equal(t, "worker-2", workers[1].Name())
}

func TestBaseWorker_HealthTracking(t *testing.T) {
	worker := NewBaseWorker("health-worker", time.Minute, true)

	worker.RecordRun(nil)
	worker.RecordRun(assert.AnError)

	health := worker.Health()
	assert.Equal(t, int64(2), health.RunCount)
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.Equal(t, assert.AnError, health.LastError)
	assert.True(t, health.Enabled)
}
