package pos_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/localstore"
	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

type syncCounter struct{ n atomic.Int32 }

func (c *syncCounter) RequestSync() { c.n.Add(1) }

type fixture struct {
	svc   *pos.Service
	cols  pos.Collections
	syncs *syncCounter
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
	f := &fixture{
		cols:  pos.NewCollections(localstore.NewMemory(), nil),
		syncs: &syncCounter{},
		clock: &now,
	}

	var seq int

	f.svc = pos.NewService(f.cols, f.syncs,
		pos.WithClock(func() time.Time { return *f.clock }),
		pos.WithIDs(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)

	return f
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Hot Drinks":      "hot-drinks",
		"  Snacks & Co. ": "snacks-co",
		"Café":            "café",
		"!!!":             "",
	}

	for in, want := range tests {
		assert.Equal(t, want, pos.Slug(in), in)
	}
}

func TestAddCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cat, err := f.svc.AddCategory(ctx, "Hot Drinks")
	require.NoError(t, err)
	assert.Equal(t, "hot-drinks", cat.ID)
	assert.Equal(t, record.StatusPending, cat.SyncStatus)

	_, err = f.svc.AddCategory(ctx, "hot drinks")
	assert.ErrorIs(t, err, pos.ErrDuplicateCategory)

	_, err = f.svc.AddCategory(ctx, "   ")
	assert.ErrorIs(t, err, pos.ErrInvalid)

	assert.EqualValues(t, 1, f.syncs.n.Load())
}

func TestProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tea, err := f.svc.AddProduct(ctx, pos.ProductParams{Name: "Tea", CategoryID: "drinks", Price: dec("15")})
	require.NoError(t, err)
	assert.True(t, tea.Active)

	_, err = f.svc.AddProduct(ctx, pos.ProductParams{Name: "Samosa", CategoryID: "snacks", Price: dec("20")})
	require.NoError(t, err)

	_, err = f.svc.AddProduct(ctx, pos.ProductParams{Name: "Bad", CategoryID: "snacks", Price: dec("-1")})
	assert.ErrorIs(t, err, pos.ErrInvalid)

	require.NoError(t, f.cols.Products.Update(ctx, func(ps []record.Product) ([]record.Product, error) {
		return record.WithStatus(ps, record.StatusSynced), nil
	}))

	updated, err := f.svc.UpdateProduct(ctx, tea.ID, pos.ProductParams{Name: "Masala Tea", CategoryID: "drinks", Price: dec("18")})
	require.NoError(t, err)
	assert.Equal(t, "Masala Tea", updated.Name)
	assert.Equal(t, record.StatusPending, updated.SyncStatus)

	toggled, err := f.svc.ToggleProductActive(ctx, tea.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	_, err = f.svc.ToggleProductActive(ctx, "missing")
	assert.ErrorIs(t, err, pos.ErrNotFound)

	drinks, err := f.svc.Products(ctx, "drinks")
	require.NoError(t, err)
	require.Len(t, drinks, 1)
	assert.Equal(t, "Masala Tea", drinks[0].Name)
}

func TestRecordSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tea, err := f.svc.AddProduct(ctx, pos.ProductParams{Name: "Tea", CategoryID: "drinks", Price: dec("15")})
	require.NoError(t, err)
	samosa, err := f.svc.AddProduct(ctx, pos.ProductParams{Name: "Samosa", CategoryID: "snacks", Price: dec("12.50")})
	require.NoError(t, err)

	tx, err := f.svc.RecordSale(ctx, []pos.SaleLine{
		{ProductID: samosa.ID, Quantity: 2},
		{ProductID: tea.ID, Quantity: 1},
	}, record.PaymentUPI)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14", tx.Date)
	assert.True(t, dec("40").Equal(tx.Total))
	assert.True(t, dec("25").Equal(tx.Items[0].Subtotal))
	assert.Equal(t, 3, tx.ItemCount())

	menu, err := f.svc.Products(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, samosa.ID, menu[0].ID, "most sold product comes first")
	assert.Equal(t, 2, menu[0].OrderFrequency)

	_, err = f.svc.RecordSale(ctx, nil, record.PaymentCash)
	assert.ErrorIs(t, err, pos.ErrEmptySale)

	_, err = f.svc.RecordSale(ctx, []pos.SaleLine{{ProductID: "nope", Quantity: 1}}, record.PaymentCash)
	assert.ErrorIs(t, err, pos.ErrNotFound)

	_, err = f.svc.RecordSale(ctx, []pos.SaleLine{{ProductID: tea.ID, Quantity: 1}}, "cheque")
	assert.ErrorIs(t, err, pos.ErrInvalid)
}

func TestExpenses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e, err := f.svc.AddExpense(ctx, pos.ExpenseParams{
		Title:    "Milk",
		Category: record.ExpenseRawMaterials,
		Amount:   dec("240"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", e.Date)

	_, err = f.svc.AddExpense(ctx, pos.ExpenseParams{Title: "Mystery", Category: "taxes", Amount: dec("1")})
	assert.ErrorIs(t, err, pos.ErrInvalid)

	_, err = f.svc.AddExpense(ctx, pos.ExpenseParams{Title: "Free", Category: record.ExpenseOther, Amount: decimal.Zero})
	assert.ErrorIs(t, err, pos.ErrInvalid)

	updated, err := f.svc.UpdateExpense(ctx, e.ID, pos.ExpenseParams{
		Title:    "Milk and sugar",
		Category: record.ExpenseRawMaterials,
		Amount:   dec("310"),
		Notes:    "dairy",
	})
	require.NoError(t, err)
	assert.Equal(t, e.CreatedAt, updated.CreatedAt)

	_, err = f.svc.UpdateExpense(ctx, "nope", pos.ExpenseParams{Title: "x", Category: record.ExpenseOther, Amount: dec("1")})
	assert.ErrorIs(t, err, pos.ErrNotFound)

	list, err := f.svc.ExpensesOn(ctx, "2026-03-14")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Milk and sugar", list[0].Title)
}

func TestCloseDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.SetOpeningCash(ctx, dec("500")))
	require.NoError(t, f.svc.SetOpeningCash(ctx, dec("750")))
	syncsBefore := f.syncs.n.Load()
	assert.EqualValues(t, 0, syncsBefore, "opening cash is device-local")

	tea, err := f.svc.AddProduct(ctx, pos.ProductParams{Name: "Tea", CategoryID: "drinks", Price: dec("15")})
	require.NoError(t, err)

	_, err = f.svc.RecordSale(ctx, []pos.SaleLine{{ProductID: tea.ID, Quantity: 4}}, record.PaymentCash)
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.svc.RecordSale(ctx, []pos.SaleLine{{ProductID: tea.ID, Quantity: 2}}, record.PaymentCard)
	require.NoError(t, err)
	_, err = f.svc.AddExpense(ctx, pos.ExpenseParams{Title: "Gas", Category: record.ExpenseUtilities, Amount: dec("35")})
	require.NoError(t, err)

	summary, err := f.svc.DailySummary(ctx, "2026-03-14")
	require.NoError(t, err)
	assert.True(t, dec("90").Equal(summary.TotalSales))
	assert.True(t, dec("60").Equal(summary.CashSales))
	assert.True(t, dec("30").Equal(summary.CardSales))
	assert.True(t, summary.UPISales.IsZero())
	assert.Equal(t, 6, summary.TotalItems)

	report, err := f.svc.CloseDay(ctx)
	require.NoError(t, err)
	assert.True(t, dec("750").Equal(report.OpeningCash))
	assert.True(t, dec("55").Equal(report.NetProfit))
	assert.Equal(t, 2, report.TransactionCount)
	assert.Len(t, report.Expenses, 1)

	f.advance(time.Hour)
	again, err := f.svc.CloseDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.ID, again.ID)

	reports, err := f.svc.Reports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestImportCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.AddProduct(ctx, pos.ProductParams{Name: "Tea", CategoryID: "drinks", Price: dec("10")})
	require.NoError(t, err)

	csv := "name;category;price\ntea;Drinks;15\nCoffee;Drinks;25\nToffee;;2\nBroken;;abc\n"

	res, err := f.svc.ImportCatalog(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.CategoriesAdded)
	assert.Equal(t, 2, res.ProductsAdded)
	assert.Equal(t, 1, res.ProductsUpdated)
	assert.Len(t, res.Skipped, 1)

	cats, err := f.svc.Categories(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}

	assert.ElementsMatch(t, []string{"drinks", record.UncategorizedID}, ids)

	drinks, err := f.svc.Products(ctx, "drinks")
	require.NoError(t, err)
	require.Len(t, drinks, 2)

	for _, p := range drinks {
		if p.Name == "Tea" {
			assert.True(t, dec("15").Equal(p.Price))
		}
	}
}

func TestTopProductsAndSlowMovers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	add := func(name, price string) record.Product {
		p, err := f.svc.AddProduct(ctx, pos.ProductParams{Name: name, CategoryID: "menu", Price: dec(price)})
		require.NoError(t, err)

		return p
	}

	tea := add("Tea", "15")
	samosa := add("Samosa", "12.50")
	vada := add("Vada", "20")
	coffee := add("Coffee", "30")

	_, err := f.svc.ToggleProductActive(ctx, coffee.ID)
	require.NoError(t, err)

	_, err = f.svc.RecordSale(ctx, []pos.SaleLine{{ProductID: vada.ID, Quantity: 5}}, record.PaymentCash)
	require.NoError(t, err)

	f.advance(24 * time.Hour)

	_, err = f.svc.RecordSale(ctx, []pos.SaleLine{{ProductID: samosa.ID, Quantity: 2}, {ProductID: tea.ID, Quantity: 1}}, record.PaymentCash)
	require.NoError(t, err)
	_, err = f.svc.RecordSale(ctx, []pos.SaleLine{{ProductID: samosa.ID, Quantity: 1}}, record.PaymentUPI)
	require.NoError(t, err)

	top, err := f.svc.TopProducts(ctx, "2026-03-15", pos.DefaultTopProducts)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Samosa", top[0].ProductName)
	assert.Equal(t, 3, top[0].Quantity)
	assert.True(t, dec("37.5").Equal(top[0].Revenue))
	assert.Equal(t, "Tea", top[1].ProductName)

	top, err = f.svc.TopProducts(ctx, "2026-03-15", 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	slow, err := f.svc.SlowMovers(ctx, "2026-03-15", pos.DefaultSlowThreshold)
	require.NoError(t, err)

	var names []string
	for _, ps := range slow {
		names = append(names, fmt.Sprintf("%s:%d", ps.ProductName, ps.Quantity))
	}

	assert.Equal(t, []string{"Vada:0", "Tea:1"}, names)
}
