package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCycleInProgress is reported when a cycle is refused because another
// one is already running against the same local store.
var ErrCycleInProgress = errors.New("sync cycle already in progress")

// Locker is a non-blocking cross-process lock. *flock.Flock implements it.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Exclusive runs at most one cycle at a time through runner, within this
// process and, when lock is not nil, across processes sharing the lock.
type Exclusive struct {
	runner Runner
	lock   Locker
	mu     sync.Mutex
}

func NewExclusive(runner Runner, lock Locker) *Exclusive {
	return &Exclusive{runner: runner, lock: lock}
}

// Run returns a Result carrying ErrCycleInProgress instead of waiting when
// another cycle holds the store.
func (e *Exclusive) Run(ctx context.Context) Result {
	if !e.mu.TryLock() {
		return refused(ErrCycleInProgress)
	}
	defer e.mu.Unlock()

	if e.lock == nil {
		return e.runner.Run(ctx)
	}

	locked, err := e.lock.TryLock()
	if err != nil {
		return refused(fmt.Errorf("acquiring sync lock: %w", err))
	}

	if !locked {
		return refused(ErrCycleInProgress)
	}

	defer func() { _ = e.lock.Unlock() }()

	return e.runner.Run(ctx)
}

func refused(err error) Result {
	return Result{StartedAt: time.Now(), Err: err}
}
