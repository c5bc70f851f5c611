package reconcile_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/event"
	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
)

type stubRunner struct {
	runs atomic.Int32
	fn   func(n int32)
}

func (r *stubRunner) Run(context.Context) reconcile.Result {
	n := r.runs.Add(1)
	if r.fn != nil {
		r.fn(n)
	}

	return reconcile.Result{StartedAt: time.Now()}
}

type switchGate struct {
	online atomic.Bool
}

func (g *switchGate) Online() bool { return g.online.Load() }

const debounce = 30 * time.Millisecond

func startScheduler(t *testing.T, s *reconcile.Scheduler) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestScheduler_BurstOfTriggersRunsOnce(t *testing.T) {
	runner := &stubRunner{}
	s := reconcile.NewScheduler(runner, reconcile.SchedulerConfig{Debounce: debounce})

	startScheduler(t, s)

	s.Trigger(reconcile.ReasonRequested)
	s.Trigger(reconcile.ReasonRequested)

	require.Eventually(t, func() bool { return s.Cycles() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(5 * debounce)
	assert.Equal(t, int32(1), runner.runs.Load())
	assert.Equal(t, reconcile.StateIdle, s.State())

	_, ok := s.LastResult()
	assert.True(t, ok)
}

func TestScheduler_DropsTriggersWhileRunning(t *testing.T) {
	release := make(chan struct{})
	runner := &stubRunner{fn: func(n int32) {
		if n == 1 {
			<-release
		}
	}}
	s := reconcile.NewScheduler(runner, reconcile.SchedulerConfig{Debounce: debounce})

	startScheduler(t, s)

	require.Eventually(t, func() bool { return s.State() == reconcile.StateRunning }, time.Second, time.Millisecond)

	s.Trigger(reconcile.ReasonRequested)
	s.Trigger(reconcile.ReasonConnectivity)

	time.Sleep(2 * debounce)
	assert.Equal(t, reconcile.StateRunning, s.State())
	close(release)

	require.Eventually(t, func() bool { return s.Cycles() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(5 * debounce)
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestScheduler_RecoversPanickingCycle(t *testing.T) {
	runner := &stubRunner{fn: func(n int32) {
		if n == 1 {
			panic("cycle exploded")
		}
	}}
	s := reconcile.NewScheduler(runner, reconcile.SchedulerConfig{Debounce: debounce})

	startScheduler(t, s)

	require.Eventually(t, func() bool { return s.Cycles() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.State() == reconcile.StateIdle }, time.Second, time.Millisecond)

	s.Trigger(reconcile.ReasonManual)

	require.Eventually(t, func() bool { return runner.runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_SkipsWhileOffline(t *testing.T) {
	runner := &stubRunner{}
	gate := &switchGate{}
	s := reconcile.NewScheduler(runner, reconcile.SchedulerConfig{Debounce: debounce}, reconcile.WithGate(gate))

	startScheduler(t, s)

	time.Sleep(5 * debounce)
	assert.Zero(t, runner.runs.Load())
	assert.Equal(t, reconcile.StateIdle, s.State())

	gate.online.Store(true)
	s.Trigger(reconcile.ReasonConnectivity)

	require.Eventually(t, func() bool { return runner.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_IntervalTriggers(t *testing.T) {
	runner := &stubRunner{}
	s := reconcile.NewScheduler(runner, reconcile.SchedulerConfig{
		Debounce: time.Millisecond,
		Interval: 20 * time.Millisecond,
	})

	startScheduler(t, s)

	require.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_SyncRequestSource(t *testing.T) {
	bus := event.NewBus()
	runner := &stubRunner{}
	s := reconcile.NewScheduler(runner, reconcile.SchedulerConfig{Debounce: debounce},
		reconcile.WithSources(reconcile.OnSignal(reconcile.ReasonRequested, bus.SyncRequests)),
	)

	startScheduler(t, s)

	require.Eventually(t, func() bool { return s.Cycles() == 1 }, time.Second, 5*time.Millisecond)

	bus.RequestSync()

	require.Eventually(t, func() bool { return s.Cycles() == 2 }, time.Second, 5*time.Millisecond)
}
