// Package connectivity tracks whether the remote record store is reachable.
package connectivity

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
)

// Pinger checks the remote store's health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor probes the remote store on an interval. It starts out assuming the
// store is reachable so the first cycle is not held back by a probe.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	online atomic.Bool
}

func NewMonitor(pinger Pinger, interval, timeout time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Monitor{
		pinger:   pinger,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
	m.online.Store(true)

	return m
}

// Online reports the result of the last probe.
func (m *Monitor) Online() bool { return m.online.Load() }

// Probe checks reachability now and returns true when the store just came
// back after being unreachable.
func (m *Monitor) Probe(ctx context.Context) (restored bool) {
	if m.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	err := m.pinger.Ping(ctx)
	online := err == nil

	was := m.online.Swap(online)
	if was == online {
		return false
	}

	if online {
		m.logger.Info("remote store reachable again")
	} else {
		m.logger.Warn("remote store unreachable", "error", err)
	}

	return online
}

// Watch probes until ctx is done and fires ReasonConnectivity on every
// offline to online transition.
func (m *Monitor) Watch(ctx context.Context, fire func(reconcile.Reason)) {
	if m.interval <= 0 {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.Probe(ctx) {
				fire(reconcile.ReasonConnectivity)
			}
		}
	}
}
