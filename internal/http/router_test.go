package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tillhttp "github.com/MrJamesThe3rd/tillsync/internal/http"
	"github.com/MrJamesThe3rd/tillsync/internal/http/syncapi"
	"github.com/MrJamesThe3rd/tillsync/internal/localstore"
	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
	"github.com/MrJamesThe3rd/tillsync/internal/remote"
	"github.com/MrJamesThe3rd/tillsync/internal/syncclient"
)

var secret = []byte("till-secret")

func newRouter(svc *remote.Service) http.Handler {
	return tillhttp.New(tillhttp.Options{Secret: secret},
		syncapi.NewHandler(svc.Categories()),
		syncapi.NewHandler(svc.Products()),
		syncapi.NewHandler(svc.Transactions()),
		syncapi.NewHandler(svc.Expenses()),
		syncapi.NewHandler(svc.Reports()),
	)
}

func TestRouter_RejectsBadRequests(t *testing.T) {
	srv := httptest.NewServer(newRouter(remote.NewService(remote.NewMemory(), 0)))
	t.Cleanup(srv.Close)

	client := syncclient.New(srv.URL, time.Second, syncclient.WithDeviceAuth("till-1", secret, time.Minute))

	type testCase struct {
		name       string
		push       func() error
		wantStatus int
	}

	tests := []testCase{
		{
			name: "empty batch",
			push: func() error {
				_, err := syncclient.NewEndpoint[record.Expense](client, record.EntityExpenses).Push(context.Background(), []record.Expense{})
				return err
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "invalid record",
			push: func() error {
				_, err := syncclient.NewEndpoint[record.Expense](client, record.EntityExpenses).Push(context.Background(), []record.Expense{{ID: "e1"}})
				return err
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unauthenticated",
			push: func() error {
				anon := syncclient.New(srv.URL, time.Second)
				_, err := syncclient.NewEndpoint[record.Expense](anon, record.EntityExpenses).Pull(context.Background())

				return err
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.push()

			var statusErr *syncclient.StatusError
			require.True(t, errors.As(err, &statusErr), "got %v", err)
			assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
		})
	}
}

func TestRouter_MissingEnvelopeField(t *testing.T) {
	srv := httptest.NewServer(tillhttp.New(tillhttp.Options{},
		syncapi.NewHandler(remote.NewService(remote.NewMemory(), 0).Products()),
	))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/api/sync/products", "application/json", strings.NewReader(`{"items":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_Healthz(t *testing.T) {
	type testCase struct {
		name       string
		health     func(context.Context) error
		wantStatus int
	}

	tests := []testCase{
		{name: "no check", wantStatus: http.StatusOK},
		{name: "healthy", health: func(context.Context) error { return nil }, wantStatus: http.StatusOK},
		{name: "db down", health: func(context.Context) error { return errors.New("down") }, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tillhttp.New(tillhttp.Options{Secret: secret, Health: tt.health})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

// Two tills share one remote store: a sale and a product recorded on the
// first reach the second after each runs a cycle.
func TestRouter_TwoTillsConverge(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(newRouter(remote.NewService(remote.NewMemory(), 0)))
	t.Cleanup(srv.Close)

	type till struct {
		products     *localstore.Collection[record.Product]
		transactions *localstore.Collection[record.Transaction]
		engine       *reconcile.Engine
	}

	newTill := func(id string) till {
		store := localstore.NewMemory()
		client := syncclient.New(srv.URL, time.Second, syncclient.WithDeviceAuth(id, secret, time.Minute))

		tl := till{
			products:     localstore.NewCollection[record.Product](store, record.EntityProducts.String(), nil),
			transactions: localstore.NewCollection[record.Transaction](store, record.EntityTransactions.String(), nil),
		}

		tl.engine = reconcile.NewEngine([]reconcile.Unit{
			reconcile.Bind(reconcile.NewAdapter(record.EntityProducts, reconcile.Remote[record.Product](syncclient.NewEndpoint[record.Product](client, record.EntityProducts)), 30), tl.products),
			reconcile.Bind(reconcile.NewAdapter(record.EntityTransactions, reconcile.Remote[record.Transaction](syncclient.NewEndpoint[record.Transaction](client, record.EntityTransactions)), 20), tl.transactions, reconcile.WithBootstrap()),
		}, nil, nil)

		return tl
	}

	a := newTill("till-a")
	b := newTill("till-b")

	require.NoError(t, a.products.Save(ctx, []record.Product{{
		ID: "p1", Name: "Tea", CategoryID: "hot", Price: decimal.NewFromInt(15), Active: true,
	}}))
	require.NoError(t, a.transactions.Save(ctx, []record.Transaction{{
		ID:          "t1",
		Date:        "2026-10-18",
		Timestamp:   1792310400000,
		Items:       []record.LineItem{{ProductID: "p1", ProductName: "Tea", Price: decimal.NewFromInt(15), Quantity: 2, Subtotal: decimal.NewFromInt(30)}},
		Total:       decimal.NewFromInt(30),
		PaymentMode: record.PaymentUPI,
	}}))

	res := a.engine.Run(ctx)
	require.False(t, res.Failed(), "%+v", res.Entities)

	res = b.engine.Run(ctx)
	require.False(t, res.Failed(), "%+v", res.Entities)
	assert.True(t, res.Entities[record.EntityTransactions].Bootstrapped)

	products, err := b.products.Load(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tea", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(15)))

	txs, err := b.transactions.Load(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, record.StatusSynced, txs[0].SyncStatus)
	assert.Equal(t, 2, txs[0].ItemCount())

	res = a.engine.Run(ctx)
	assert.False(t, res.Changed)
}
