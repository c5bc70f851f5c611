package reconcile_test

import (
	"context"
	"slices"
	"sync"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

// fakeRemote is an in-memory remote store with upsert-by-id semantics.
type fakeRemote[T record.Syncable[T]] struct {
	mu      sync.Mutex
	records []T
	pushes  int

	pushErr error
	pullErr error
	onPush  func()
	onPull  func()
}

func (f *fakeRemote[T]) Push(_ context.Context, batch []T) ([]string, error) {
	if f.onPush != nil {
		f.onPush()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.pushes++

	if f.pushErr != nil {
		return nil, f.pushErr
	}

	ids := make([]string, 0, len(batch))

	for _, r := range batch {
		r = r.WithSyncState(record.StatusSynced)

		i := slices.IndexFunc(f.records, func(x T) bool { return x.RecordID() == r.RecordID() })
		if i >= 0 {
			f.records[i] = r
		} else {
			f.records = append(f.records, r)
		}

		ids = append(ids, r.RecordID())
	}

	return ids, nil
}

func (f *fakeRemote[T]) Pull(context.Context) ([]T, error) {
	if f.onPull != nil {
		f.onPull()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pullErr != nil {
		return nil, f.pullErr
	}

	return slices.Clone(f.records), nil
}

func (f *fakeRemote[T]) snapshot() []T {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.records)
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) NotifyChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.count++
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.count
}
