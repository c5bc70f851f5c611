// Package event carries the two application-wide signals of the till:
// a local mutation asking for a sync, and the sync engine reporting that
// local data changed underneath the UI.
package event

import "sync"

// Bus fans signals out to subscribers. Each subscription has a buffer of one
// and publishing never blocks, so bursts coalesce into a single wake-up.
type Bus struct {
	mu      sync.Mutex
	nextID  int
	syncReq map[int]chan struct{}
	changed map[int]chan struct{}
}

func NewBus() *Bus {
	return &Bus{
		syncReq: make(map[int]chan struct{}),
		changed: make(map[int]chan struct{}),
	}
}

// RequestSync is raised by any code path that wrote pending records.
func (b *Bus) RequestSync() { b.publish(b.syncReq) }

// NotifyChanged is raised by the sync engine after a cycle altered local data.
func (b *Bus) NotifyChanged() { b.publish(b.changed) }

// SyncRequests subscribes to RequestSync. Call cancel to unsubscribe.
func (b *Bus) SyncRequests() (<-chan struct{}, func()) { return b.subscribe(b.syncReq) }

// Changes subscribes to NotifyChanged. Call cancel to unsubscribe.
func (b *Bus) Changes() (<-chan struct{}, func()) { return b.subscribe(b.changed) }

func (b *Bus) publish(subs map[int]chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (b *Bus) subscribe(subs map[int]chan struct{}) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan struct{}, 1)
	subs[id] = ch

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(subs, id)
		})
	}

	return ch, cancel
}
