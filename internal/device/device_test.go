package device_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/config"
	"github.com/MrJamesThe3rd/tillsync/internal/device"
	tillhttp "github.com/MrJamesThe3rd/tillsync/internal/http"
	"github.com/MrJamesThe3rd/tillsync/internal/http/syncapi"
	"github.com/MrJamesThe3rd/tillsync/internal/localstore"
	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
	"github.com/MrJamesThe3rd/tillsync/internal/remote"
)

const secret = "shared-secret"

func newServer(t *testing.T) (*httptest.Server, *remote.Memory) {
	t.Helper()

	repo := remote.NewMemory()
	svc := remote.NewService(repo, 0)

	srv := httptest.NewServer(tillhttp.New(tillhttp.Options{Secret: []byte(secret)},
		syncapi.NewHandler(svc.Categories()),
		syncapi.NewHandler(svc.Products()),
		syncapi.NewHandler(svc.Transactions()),
		syncapi.NewHandler(svc.Expenses()),
		syncapi.NewHandler(svc.Reports()),
	))
	t.Cleanup(srv.Close)

	return srv, repo
}

func testConfig(url, id string) *config.Config {
	cfg := &config.Config{}
	cfg.Device.ID = id
	cfg.Auth.Secret = secret
	cfg.Auth.TokenTTL = time.Minute
	cfg.Sync.URL = url
	cfg.Sync.RequestTimeout = time.Second
	cfg.Sync.Debounce = 10 * time.Millisecond
	cfg.Sync.Batch.Categories = 30
	cfg.Sync.Batch.Products = 30
	cfg.Sync.Batch.Transactions = 20
	cfg.Sync.Batch.Expenses = 30
	cfg.Sync.Batch.Reports = 10

	return cfg
}

func open(t *testing.T, cfg *config.Config, store localstore.Store) *device.Device {
	t.Helper()

	d, err := device.Open(context.Background(), cfg, device.WithStore(store))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	return d
}

func TestDevice_TillsShareMenuAndSales(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)

	a := open(t, testConfig(srv.URL, "till-a"), localstore.NewMemory())
	b := open(t, testConfig(srv.URL, "till-b"), localstore.NewMemory())

	cat, err := a.POS.AddCategory(ctx, "Hot Drinks")
	require.NoError(t, err)

	tea, err := a.POS.AddProduct(ctx, pos.ProductParams{Name: "Tea", CategoryID: cat.ID, Price: decimal.NewFromInt(15)})
	require.NoError(t, err)

	_, err = a.POS.RecordSale(ctx, []pos.SaleLine{{ProductID: tea.ID, Quantity: 2}}, record.PaymentCash)
	require.NoError(t, err)

	res := a.SyncNow(ctx)
	require.False(t, res.Failed(), "%+v", res.Entities)
	assert.Equal(t, 1, res.Entities[record.EntityTransactions].Confirmed)

	res = b.SyncNow(ctx)
	require.False(t, res.Failed(), "%+v", res.Entities)
	assert.True(t, res.Changed)

	menu, err := b.POS.Products(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Tea", menu[0].Name)
	assert.Equal(t, 2, menu[0].OrderFrequency)
	assert.Equal(t, record.StatusSynced, menu[0].SyncStatus)

	status, err := a.Engine.Status(ctx)
	require.NoError(t, err)

	for entity, c := range status {
		assert.Zero(t, c.Pending, entity)
	}
}

func TestDevice_SaleTriggersScheduledSync(t *testing.T) {
	srv, repo := newServer(t)
	d := open(t, testConfig(srv.URL, "till-a"), localstore.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() { errCh <- d.Scheduler.Run(ctx) }()

	require.Eventually(t, func() bool { return d.Scheduler.Cycles() >= 1 }, 2*time.Second, 5*time.Millisecond)

	p, err := d.POS.AddProduct(ctx, pos.ProductParams{Name: "Coffee", CategoryID: "hot", Price: decimal.NewFromInt(25)})
	require.NoError(t, err)

	_, err = d.POS.RecordSale(ctx, []pos.SaleLine{{ProductID: p.ID, Quantity: 1}}, record.PaymentCard)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		txs, err := repo.ListTransactions(context.Background())
		return err == nil && len(txs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
}

func TestDevice_IDPersists(t *testing.T) {
	srv, _ := newServer(t)
	store := localstore.NewMemory()

	first, err := device.Open(context.Background(), testConfig(srv.URL, ""), device.WithStore(store))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := device.Open(context.Background(), testConfig(srv.URL, ""), device.WithStore(store))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, second.Close())
}

func TestDevice_SyncNowYieldsToAnotherProcess(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)

	cfg := testConfig(srv.URL, "till-a")
	cfg.Device.LocalDB = filepath.Join(t.TempDir(), "till.db")

	d, err := device.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	other := flock.New(cfg.Device.LocalDB + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	res := d.SyncNow(ctx)
	assert.ErrorIs(t, res.Err, reconcile.ErrCycleInProgress)

	require.NoError(t, other.Unlock())

	res = d.SyncNow(ctx)
	assert.NoError(t, res.Err)
	assert.False(t, res.Failed(), "%+v", res.Entities)
}
