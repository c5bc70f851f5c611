// Package device assembles a till: its local store, the sync engine and
// scheduler, the connectivity monitor and the business actions.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tillsync/internal/config"
	"github.com/MrJamesThe3rd/tillsync/internal/connectivity"
	"github.com/MrJamesThe3rd/tillsync/internal/event"
	"github.com/MrJamesThe3rd/tillsync/internal/localstore"
	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
	"github.com/MrJamesThe3rd/tillsync/internal/syncclient"
)

const identityKey = "device"

type identity struct {
	ID string `json:"id"`
}

type Device struct {
	ID        string
	Bus       *event.Bus
	Client    *syncclient.Client
	Engine    *reconcile.Engine
	Monitor   *connectivity.Monitor
	Scheduler *reconcile.Scheduler
	POS       *pos.Service

	runner *reconcile.Exclusive
	store  localstore.Store
	logger *slog.Logger
}

type Option func(*options)

type options struct {
	store      localstore.Store
	httpClient *http.Client
	logger     *slog.Logger
}

// WithStore uses store instead of opening the SQLite file named in the config.
func WithStore(store localstore.Store) Option {
	return func(o *options) { o.store = store }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Device, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store

	// Only a store on disk can be shared with another process.
	var lock reconcile.Locker

	if store == nil {
		sqlite, err := localstore.OpenSQLite(ctx, cfg.Device.LocalDB, o.logger)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}

		store = sqlite
		lock = flock.New(cfg.Device.LocalDB + ".lock")
	}

	id, err := deviceID(ctx, store, cfg.Device.ID, o.logger)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}

	logger := o.logger.With("device", id)

	clientOpts := []syncclient.Option{
		syncclient.WithMaxResponseBytes(cfg.Sync.MaxResponse),
		syncclient.WithLogger(logger),
	}
	if cfg.Auth.Secret != "" {
		clientOpts = append(clientOpts, syncclient.WithDeviceAuth(id, []byte(cfg.Auth.Secret), cfg.Auth.TokenTTL))
	}

	if o.httpClient != nil {
		clientOpts = append(clientOpts, syncclient.WithHTTPClient(o.httpClient))
	}

	client := syncclient.New(cfg.Sync.URL, cfg.Sync.RequestTimeout, clientOpts...)
	cols := pos.NewCollections(store, logger)
	bus := event.NewBus()
	batch := cfg.Sync.Batch

	engine := reconcile.NewEngine([]reconcile.Unit{
		bind(client, record.EntityCategories, batch.Categories, cols.Categories),
		bind(client, record.EntityProducts, batch.Products, cols.Products),
		bind(client, record.EntityTransactions, batch.Transactions, cols.Transactions, reconcile.WithBootstrap()),
		bind(client, record.EntityExpenses, batch.Expenses, cols.Expenses),
		bind(client, record.EntityReports, batch.Reports, cols.Reports, reconcile.WithBootstrap()),
	}, bus, logger)
	runner := reconcile.NewExclusive(engine, lock)

	monitor := connectivity.NewMonitor(client, cfg.Sync.ProbeInterval, cfg.Sync.RequestTimeout, logger)

	scheduler := reconcile.NewScheduler(runner,
		reconcile.SchedulerConfig{Debounce: cfg.Sync.Debounce, Interval: cfg.Sync.Interval},
		reconcile.WithGate(monitor),
		reconcile.WithSources(monitor, reconcile.OnSignal(reconcile.ReasonRequested, bus.SyncRequests)),
		reconcile.WithLogger(logger),
	)

	return &Device{
		ID:        id,
		Bus:       bus,
		Client:    client,
		Engine:    engine,
		Monitor:   monitor,
		Scheduler: scheduler,
		POS:       pos.NewService(cols, bus, pos.WithLogger(logger)),
		runner:    runner,
		store:     store,
		logger:    logger,
	}, nil
}

func bind[T record.Syncable[T]](
	client *syncclient.Client,
	entity record.Entity,
	batchSize int,
	local *localstore.Collection[T],
	opts ...reconcile.BindOption,
) reconcile.Unit {
	remote := syncclient.NewEndpoint[T](client, entity)
	return reconcile.Bind(reconcile.NewAdapter[T](entity, remote, batchSize), local, opts...)
}

// deviceID returns the configured id, else the id stored by an earlier run,
// else a new one which is stored for next time.
func deviceID(ctx context.Context, store localstore.Store, configured string, logger *slog.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}

	col := localstore.NewCollection[identity](store, identityKey, logger)

	var id string

	err := col.Update(ctx, func(ids []identity) ([]identity, error) {
		if len(ids) > 0 && ids[0].ID != "" {
			id = ids[0].ID
			return nil, localstore.ErrNoChange
		}

		id = uuid.NewString()

		return []identity{{ID: id}}, nil
	})
	if err != nil {
		return "", fmt.Errorf("device id: %w", err)
	}

	return id, nil
}

// SyncNow runs one cycle without debouncing. It shares the scheduler's
// guard, so while another cycle holds the local store (here or in another
// process on the same LOCAL_DB) it returns at once with
// reconcile.ErrCycleInProgress in Result.Err.
func (d *Device) SyncNow(ctx context.Context) reconcile.Result {
	return d.runner.Run(ctx)
}

func (d *Device) Close() error {
	if err := d.store.Close(); err != nil {
		d.logger.Error("failed to close local store", "error", err)
		return err
	}

	return nil
}
