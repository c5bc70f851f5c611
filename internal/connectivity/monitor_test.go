package connectivity_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/connectivity"
	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
)

type switchPinger struct {
	up atomic.Bool
}

func (p *switchPinger) Ping(context.Context) error {
	if p.up.Load() {
		return nil
	}

	return errors.New("connection refused")
}

func TestMonitor_Probe(t *testing.T) {
	ctx := context.Background()
	pinger := &switchPinger{}
	m := connectivity.NewMonitor(pinger, 0, time.Second, nil)

	assert.True(t, m.Online())

	assert.False(t, m.Probe(ctx))
	assert.False(t, m.Online())

	assert.False(t, m.Probe(ctx))

	pinger.up.Store(true)
	assert.True(t, m.Probe(ctx))
	assert.True(t, m.Online())

	assert.False(t, m.Probe(ctx))
}

func TestMonitor_WatchFiresOnRestore(t *testing.T) {
	pinger := &switchPinger{}
	m := connectivity.NewMonitor(pinger, 5*time.Millisecond, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired atomic.Int32

	go m.Watch(ctx, func(r reconcile.Reason) {
		if r == reconcile.ReasonConnectivity {
			fired.Add(1)
		}
	})

	require.Eventually(t, func() bool { return !m.Online() }, time.Second, time.Millisecond)
	assert.Zero(t, fired.Load())

	pinger.up.Store(true)

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
}
