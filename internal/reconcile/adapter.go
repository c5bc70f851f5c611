// Package reconcile replicates the till's local records to the remote record
// store and back: an Adapter per entity type, an Engine running one
// push-then-pull cycle across all of them and a Scheduler deciding when
// cycles run.
package reconcile

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

//go:generate mockgen -source=adapter.go -destination=remote_mock.go -package=reconcile

// Remote is the remote record store for one entity type. Push is an
// idempotent create-or-update by id returning the ids the store confirmed.
type Remote[T any] interface {
	Push(ctx context.Context, batch []T) ([]string, error)
	Pull(ctx context.Context) ([]T, error)
}

// Adapter moves one entity type between the local collection and its Remote.
type Adapter[T record.Syncable[T]] struct {
	entity    record.Entity
	remote    Remote[T]
	batchSize int
}

// NewAdapter returns an adapter pushing at most batchSize records per cycle.
// A batchSize of zero or less means uncapped.
func NewAdapter[T record.Syncable[T]](entity record.Entity, remote Remote[T], batchSize int) *Adapter[T] {
	return &Adapter[T]{
		entity:    entity,
		remote:    remote,
		batchSize: batchSize,
	}
}

func (a *Adapter[T]) Entity() record.Entity { return a.entity }

// SelectPending returns the records not yet confirmed by the remote store,
// oldest first, capped at the batch size.
func (a *Adapter[T]) SelectPending(all []T) []T {
	var pending []T

	for _, r := range all {
		if r.SyncState() == record.StatusSynced {
			continue
		}

		pending = append(pending, r)

		if a.batchSize > 0 && len(pending) == a.batchSize {
			break
		}
	}

	return pending
}

// Push sends batch in one request. The returned set only holds ids that were
// both sent and confirmed; on any error it is empty and the whole batch is
// retried next cycle.
func (a *Adapter[T]) Push(ctx context.Context, batch []T) (map[string]struct{}, error) {
	confirmed := make(map[string]struct{})
	if len(batch) == 0 {
		return confirmed, nil
	}

	ids, err := a.remote.Push(ctx, batch)
	if err != nil {
		return confirmed, fmt.Errorf("pushing %s: %w", a.entity, err)
	}

	sent := make(map[string]struct{}, len(batch))
	for _, r := range batch {
		sent[r.RecordID()] = struct{}{}
	}

	for _, id := range ids {
		if _, ok := sent[id]; ok {
			confirmed[id] = struct{}{}
		}
	}

	return confirmed, nil
}

// Pull fetches the remote view. Everything returned is tagged synced since it
// came from the authoritative store.
func (a *Adapter[T]) Pull(ctx context.Context) ([]T, error) {
	remote, err := a.remote.Pull(ctx)
	if err != nil {
		return nil, fmt.Errorf("pulling %s: %w", a.entity, err)
	}

	return record.WithStatus(remote, record.StatusSynced), nil
}

// ApplyConfirmed marks records whose id is in confirmed as synced. Other
// records keep their state.
func ApplyConfirmed[T record.Syncable[T]](all []T, confirmed map[string]struct{}) []T {
	out := make([]T, len(all))

	for i, r := range all {
		if _, ok := confirmed[r.RecordID()]; ok {
			r = r.WithSyncState(record.StatusSynced)
		}

		out[i] = r
	}

	return out
}

// Merge combines local state with a pulled remote view. Local records that
// are still pending win over remote records with the same id; everything else
// is taken from remote. Synced local records missing remotely are dropped.
func Merge[T record.Syncable[T]](local, remote []T) []T {
	merged := make([]T, 0, len(local)+len(remote))
	pendingIDs := make(map[string]struct{})

	for _, r := range local {
		if r.SyncState() == record.StatusSynced {
			continue
		}

		merged = append(merged, r)
		pendingIDs[r.RecordID()] = struct{}{}
	}

	for _, r := range remote {
		if _, ok := pendingIDs[r.RecordID()]; ok {
			continue
		}

		merged = append(merged, r)
	}

	return merged
}
