package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State is the scheduler's position in its Idle → Debouncing → Running cycle.
type State int32

const (
	StateIdle State = iota
	StateDebouncing
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StateRunning:
		return "running"
	default:
		return "idle"
	}
}

// Runner runs one reconciliation cycle. *Engine implements it.
type Runner interface {
	Run(ctx context.Context) Result
}

// Gate reports whether the remote store is believed reachable.
type Gate interface {
	Online() bool
}

type SchedulerConfig struct {
	Debounce time.Duration
	Interval time.Duration
}

type SchedulerOption func(*Scheduler)

// WithGate skips cycles while gate reports offline.
func WithGate(gate Gate) SchedulerOption {
	return func(s *Scheduler) { s.gate = gate }
}

func WithSources(sources ...Source) SchedulerOption {
	return func(s *Scheduler) { s.sources = append(s.sources, sources...) }
}

func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// Scheduler debounces triggers and runs at most one cycle at a time.
// Triggers arriving while a cycle runs are dropped.
type Scheduler struct {
	runner  Runner
	cfg     SchedulerConfig
	gate    Gate
	sources []Source
	logger  *slog.Logger

	triggers chan Reason
	state    atomic.Int32
	cycles   atomic.Int64

	mu   sync.Mutex
	last *Result
}

func NewScheduler(runner Runner, cfg SchedulerConfig, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:   runner,
		cfg:      cfg,
		logger:   slog.Default(),
		triggers: make(chan Reason, 16),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Trigger asks for a cycle. It never blocks.
func (s *Scheduler) Trigger(reason Reason) {
	select {
	case s.triggers <- reason:
	default:
	}
}

func (s *Scheduler) State() State { return State(s.state.Load()) }

// Cycles returns the number of cycles that have run to completion.
func (s *Scheduler) Cycles() int64 { return s.cycles.Load() }

// LastResult returns the result of the most recent cycle, if any.
func (s *Scheduler) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return Result{}, false
	}

	return *s.last, true
}

// Run drives the state machine until ctx is done. A cycle still in flight
// when ctx is cancelled is waited for. Debounce relies on Timer.Reset
// discarding a pending fire.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for _, src := range s.sources {
		wg.Add(1)

		go func() {
			defer wg.Done()
			src.Watch(ctx, s.Trigger)
		}()
	}

	defer wg.Wait()

	s.Trigger(ReasonStartup)

	var tick <-chan time.Time

	if s.cfg.Interval > 0 {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		tick = ticker.C
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	defer debounce.Stop()

	done := make(chan Result, 1)
	reasons := make([]Reason, 0, 4)

	for {
		select {
		case <-ctx.Done():
			if s.State() == StateRunning {
				s.record(<-done)
			}

			s.state.Store(int32(StateIdle))

			return nil

		case <-tick:
			s.Trigger(ReasonInterval)

		case reason := <-s.triggers:
			if s.State() == StateRunning {
				s.logger.Debug("sync already running, dropping trigger", "reason", reason)
				continue
			}

			reasons = append(reasons, reason)
			s.state.Store(int32(StateDebouncing))
			debounce.Reset(s.cfg.Debounce)

		case <-debounce.C:
			if s.gate != nil && !s.gate.Online() {
				s.logger.Debug("offline, skipping sync", "reasons", reasons)
				reasons = reasons[:0]
				s.state.Store(int32(StateIdle))

				continue
			}

			s.logger.Debug("starting sync", "reasons", reasons)
			reasons = reasons[:0]
			s.state.Store(int32(StateRunning))

			go s.cycle(ctx, done)

		case res := <-done:
			s.record(res)
			s.state.Store(int32(StateIdle))
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context, done chan<- Result) {
	res := Result{StartedAt: time.Now()}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sync cycle panicked", "error", fmt.Errorf("panic: %v", r))
		}

		done <- res
	}()

	res = s.runner.Run(ctx)
	if res.Err != nil {
		s.logger.Info("sync cycle skipped", "error", res.Err)
	}
}

func (s *Scheduler) record(res Result) {
	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	s.cycles.Add(1)
}
