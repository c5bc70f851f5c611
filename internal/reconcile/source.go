package reconcile

import "context"

// Reason names what triggered a cycle.
type Reason string

const (
	ReasonStartup      Reason = "startup"
	ReasonConnectivity Reason = "connectivity"
	ReasonRequested    Reason = "requested"
	ReasonInterval     Reason = "interval"
	ReasonManual       Reason = "manual"
)

// Source calls fire whenever it wants a cycle. Watch blocks until ctx is done.
type Source interface {
	Watch(ctx context.Context, fire func(Reason))
}

type SourceFunc func(ctx context.Context, fire func(Reason))

func (f SourceFunc) Watch(ctx context.Context, fire func(Reason)) { f(ctx, fire) }

// OnSignal adapts a subscribe-style signal such as event.Bus.SyncRequests
// into a Source firing reason on every receive.
func OnSignal(reason Reason, subscribe func() (<-chan struct{}, func())) Source {
	return SourceFunc(func(ctx context.Context, fire func(Reason)) {
		ch, cancel := subscribe()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				fire(reason)
			}
		}
	})
}
