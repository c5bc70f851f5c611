package reconcile

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/MrJamesThe3rd/tillsync/internal/localstore"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

// Unit binds one adapter to the local collection it reconciles. Units are
// created with Bind and only driven by an Engine.
type Unit interface {
	Entity() record.Entity
	Counts(ctx context.Context) (Counts, error)

	bootstrap(ctx context.Context) (ran bool, pulled int, changed bool, err error)
	push(ctx context.Context) (pending, confirmed int, err error)
	pull(ctx context.Context) (merge mergeFunc, pulled int, err error)
}

type mergeFunc func(ctx context.Context) (changed bool, err error)

// Counts summarises the local copy of one entity.
type Counts struct {
	Total   int
	Pending int
}

type BindOption func(*bindOptions)

type bindOptions struct {
	bootstrapWhenEmpty bool
}

// WithBootstrap makes the unit pull its history before the first push when
// the local collection is empty.
func WithBootstrap() BindOption {
	return func(o *bindOptions) { o.bootstrapWhenEmpty = true }
}

type unit[T record.Syncable[T]] struct {
	adapter *Adapter[T]
	local   *localstore.Collection[T]
	opts    bindOptions
}

func Bind[T record.Syncable[T]](adapter *Adapter[T], local *localstore.Collection[T], opts ...BindOption) Unit {
	u := &unit[T]{adapter: adapter, local: local}
	for _, opt := range opts {
		opt(&u.opts)
	}

	return u
}

func (u *unit[T]) Entity() record.Entity { return u.adapter.Entity() }

func (u *unit[T]) Counts(ctx context.Context) (Counts, error) {
	all, err := u.local.Load(ctx)
	if err != nil {
		return Counts{}, err
	}

	c := Counts{Total: len(all)}

	for _, r := range all {
		if r.SyncState() != record.StatusSynced {
			c.Pending++
		}
	}

	return c, nil
}

func (u *unit[T]) bootstrap(ctx context.Context) (bool, int, bool, error) {
	if !u.opts.bootstrapWhenEmpty {
		return false, 0, false, nil
	}

	all, err := u.local.Load(ctx)
	if err != nil {
		return false, 0, false, err
	}

	if len(all) > 0 {
		return false, 0, false, nil
	}

	merge, pulled, err := u.pull(ctx)
	if err != nil {
		return true, 0, false, err
	}

	changed, err := merge(ctx)

	return true, pulled, changed, err
}

// push sends the pending batch and marks confirmed records synced. A record
// edited locally while the request was in flight no longer equals what was
// sent, so it stays pending and goes out again next cycle.
func (u *unit[T]) push(ctx context.Context) (int, int, error) {
	all, err := u.local.Load(ctx)
	if err != nil {
		return 0, 0, err
	}

	batch := u.adapter.SelectPending(all)
	if len(batch) == 0 {
		return 0, 0, nil
	}

	confirmed, err := u.adapter.Push(ctx, batch)
	if err != nil {
		return len(batch), 0, err
	}

	if len(confirmed) == 0 {
		return len(batch), 0, nil
	}

	sent := make(map[string]T, len(batch))
	for _, r := range batch {
		sent[r.RecordID()] = r
	}

	applied := 0

	err = u.local.Update(ctx, func(current []T) ([]T, error) {
		unchanged := make(map[string]struct{}, len(confirmed))

		for _, r := range current {
			id := r.RecordID()
			if _, ok := confirmed[id]; !ok {
				continue
			}

			if was, ok := sent[id]; ok && cmp.Equal(r, was, cmpopts.EquateEmpty()) {
				unchanged[id] = struct{}{}
			}
		}

		applied = len(unchanged)
		if applied == 0 {
			return nil, localstore.ErrNoChange
		}

		return ApplyConfirmed(current, unchanged), nil
	})
	if err != nil {
		return len(batch), 0, fmt.Errorf("marking %s synced: %w", u.Entity(), err)
	}

	return len(batch), applied, nil
}

// pull fetches the remote view and returns the merge to apply to whatever
// the local collection holds when it runs.
func (u *unit[T]) pull(ctx context.Context) (mergeFunc, int, error) {
	remote, err := u.adapter.Pull(ctx)
	if err != nil {
		return nil, 0, err
	}

	merge := func(ctx context.Context) (bool, error) {
		changed := false

		err := u.local.Update(ctx, func(current []T) ([]T, error) {
			next := Merge(current, remote)
			if cmp.Equal(current, next, cmpopts.EquateEmpty()) {
				return nil, localstore.ErrNoChange
			}

			changed = true

			return next, nil
		})
		if err != nil {
			return false, fmt.Errorf("merging %s: %w", u.Entity(), err)
		}

		return changed, nil
	}

	return merge, len(remote), nil
}
