package remote

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

var errBatchDone = errors.New("batch already committed or rolled back")

// Memory is a Repository kept in process memory. It follows the same
// connect-or-create rules as the Postgres store.
type Memory struct {
	mu           sync.Mutex
	categories   table[record.Category]
	products     table[record.Product]
	transactions table[record.Transaction]
	expenses     table[record.Expense]
	reports      table[record.DailyReport]
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{}
	m.categories.put(record.Category{ID: record.UncategorizedID, Name: "Uncategorized", IsDefault: true})

	return m
}

type table[T record.Syncable[T]] struct {
	order []string
	rows  map[string]T
}

func (t *table[T]) put(r T) {
	if t.rows == nil {
		t.rows = make(map[string]T)
	}

	if _, ok := t.rows[r.RecordID()]; !ok {
		t.order = append(t.order, r.RecordID())
	}

	t.rows[r.RecordID()] = r
}

func (t *table[T]) has(id string) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}

	return out
}

func (m *Memory) BeginBatch(context.Context) (BatchTx, error) {
	return &memoryBatch{m: m}, nil
}

func (m *Memory) ListCategories(context.Context) ([]record.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.categories.list(), nil
}

func (m *Memory) ListProducts(context.Context) ([]record.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.products.list(), nil
}

func (m *Memory) ListTransactions(context.Context) ([]record.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs := m.transactions.list()
	slices.SortStableFunc(txs, func(a, b record.Transaction) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	return txs, nil
}

func (m *Memory) ListExpenses(context.Context) ([]record.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exps := m.expenses.list()
	slices.SortStableFunc(exps, func(a, b record.Expense) int {
		return cmp.Or(cmp.Compare(b.Date, a.Date), cmp.Compare(b.CreatedAt, a.CreatedAt))
	})

	return exps, nil
}

func (m *Memory) ListReports(_ context.Context, limit int) ([]record.DailyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reports := m.reports.list()
	slices.SortStableFunc(reports, func(a, b record.DailyReport) int {
		return cmp.Compare(b.ArchivedAt, a.ArchivedAt)
	})

	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}

	return reports, nil
}

// memoryBatch stages writes and applies them on Commit.
type memoryBatch struct {
	m      *Memory
	staged []func()
	done   bool
}

func (b *memoryBatch) stage(fn func()) error {
	if b.done {
		return errBatchDone
	}

	b.staged = append(b.staged, fn)

	return nil
}

func (b *memoryBatch) Commit() error {
	if b.done {
		return errBatchDone
	}

	b.done = true

	b.m.mu.Lock()
	defer b.m.mu.Unlock()

	for _, fn := range b.staged {
		fn()
	}

	return nil
}

func (b *memoryBatch) Rollback() error {
	if b.done {
		return errBatchDone
	}

	b.done = true
	b.staged = nil

	return nil
}

func (b *memoryBatch) UpsertCategories(_ context.Context, categories []record.Category) error {
	return b.stage(func() {
		for _, c := range categories {
			b.m.categories.put(c)
		}
	})
}

func (b *memoryBatch) UpsertProducts(_ context.Context, products []record.Product) error {
	return b.stage(func() {
		for _, p := range products {
			b.m.ensureCategory(p.CategoryID)
			b.m.products.put(p)
		}
	})
}

func (b *memoryBatch) UpsertTransactions(_ context.Context, txs []record.Transaction) error {
	return b.stage(func() {
		for _, t := range txs {
			for _, it := range t.Items {
				if b.m.products.has(it.ProductID) {
					continue
				}

				b.m.products.put(record.Product{
					ID:         it.ProductID,
					Name:       it.ProductName,
					CategoryID: record.UncategorizedID,
					Price:      it.Price,
					Active:     true,
					SyncStatus: record.StatusSynced,
				})
			}

			b.m.transactions.put(t)
		}
	})
}

func (b *memoryBatch) UpsertExpenses(_ context.Context, expenses []record.Expense) error {
	return b.stage(func() {
		for _, e := range expenses {
			b.m.expenses.put(e)
		}
	})
}

func (b *memoryBatch) UpsertReports(_ context.Context, reports []record.DailyReport) error {
	return b.stage(func() {
		for _, r := range reports {
			b.m.reports.put(r)
		}
	})
}

func (m *Memory) ensureCategory(id string) {
	if m.categories.has(id) {
		return
	}

	m.categories.put(record.Category{ID: id, Name: id, SyncStatus: record.StatusSynced})
}
