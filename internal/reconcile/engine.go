package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

// Notifier receives the single "data changed" signal of a cycle.
type Notifier interface {
	NotifyChanged()
}

// EntityResult is what one cycle did for one entity.
type EntityResult struct {
	Bootstrapped bool
	Pending      int
	Confirmed    int
	Pulled       int
	Changed      bool
	Err          error
}

// Result describes one reconciliation cycle. Err is set when the cycle
// never started.
type Result struct {
	StartedAt time.Time
	Duration  time.Duration
	Changed   bool
	Entities  map[record.Entity]EntityResult
	Err       error
}

// Failed reports whether the cycle was refused or any entity hit an error.
func (r Result) Failed() bool {
	if r.Err != nil {
		return true
	}

	for _, e := range r.Entities {
		if e.Err != nil {
			return true
		}
	}

	return false
}

// Engine runs reconciliation cycles over a fixed list of units.
type Engine struct {
	units    []Unit
	notifier Notifier
	logger   *slog.Logger
}

// NewEngine orders units by record.PushOrder. notifier may be nil.
func NewEngine(units []Unit, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	ordered := slices.Clone(units)
	slices.SortStableFunc(ordered, func(a, b Unit) int {
		return slices.Index(record.PushOrder, a.Entity()) - slices.Index(record.PushOrder, b.Entity())
	})

	return &Engine{
		units:    ordered,
		notifier: notifier,
		logger:   logger,
	}
}

// Status returns local totals and pending counts per entity.
func (e *Engine) Status(ctx context.Context) (map[record.Entity]Counts, error) {
	out := make(map[record.Entity]Counts, len(e.units))

	for _, u := range e.units {
		c, err := u.Counts(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", u.Entity(), err)
		}

		out[u.Entity()] = c
	}

	return out, nil
}

// Run executes one cycle: bootstrap of empty collections, sequential push in
// dependency order, concurrent pull, then per-entity merge. Errors are
// recorded per entity and never abort the other entities.
func (e *Engine) Run(ctx context.Context) Result {
	started := time.Now()
	stats := make([]EntityResult, len(e.units))

	for i, u := range e.units {
		err := e.guard(u.Entity(), "bootstrap", func() error {
			ran, pulled, changed, err := u.bootstrap(ctx)
			stats[i].Bootstrapped = ran
			stats[i].Pulled += pulled
			stats[i].Changed = stats[i].Changed || changed

			return err
		})
		stats[i].Err = errors.Join(stats[i].Err, err)
	}

	for i, u := range e.units {
		err := e.guard(u.Entity(), "push", func() error {
			pending, confirmed, err := u.push(ctx)
			stats[i].Pending = pending
			stats[i].Confirmed = confirmed
			stats[i].Changed = stats[i].Changed || confirmed > 0

			return err
		})
		stats[i].Err = errors.Join(stats[i].Err, err)
	}

	merges := make([]mergeFunc, len(e.units))
	pullErrs := make([]error, len(e.units))
	pulled := make([]int, len(e.units))

	var g errgroup.Group

	for i, u := range e.units {
		g.Go(func() error {
			pullErrs[i] = e.guard(u.Entity(), "pull", func() error {
				merge, n, err := u.pull(ctx)
				merges[i] = merge
				pulled[i] = n

				return err
			})

			return nil
		})
	}

	_ = g.Wait()

	for i, u := range e.units {
		stats[i].Pulled += pulled[i]
		stats[i].Err = errors.Join(stats[i].Err, pullErrs[i])

		if merges[i] == nil {
			continue
		}

		err := e.guard(u.Entity(), "merge", func() error {
			changed, err := merges[i](ctx)
			stats[i].Changed = stats[i].Changed || changed

			return err
		})
		stats[i].Err = errors.Join(stats[i].Err, err)
	}

	res := Result{
		StartedAt: started,
		Duration:  time.Since(started),
		Entities:  make(map[record.Entity]EntityResult, len(e.units)),
	}

	for i, u := range e.units {
		res.Entities[u.Entity()] = stats[i]
		res.Changed = res.Changed || stats[i].Changed
	}

	if res.Changed && e.notifier != nil {
		e.notifier.NotifyChanged()
	}

	e.logger.Info("sync cycle finished", "duration", res.Duration, "changed", res.Changed, "failed", res.Failed())

	return res
}

func (e *Engine) guard(entity record.Entity, step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %s: panic: %v", step, entity, r)
		}

		if err != nil {
			e.logger.Warn("sync step failed", "entity", entity, "step", step, "error", err)
		}
	}()

	return fn()
}
