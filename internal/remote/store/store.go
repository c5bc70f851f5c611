package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
	"github.com/MrJamesThe3rd/tillsync/internal/remote"
)

var _ remote.Repository = (*Store)(nil)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) BeginBatch(ctx context.Context) (remote.BatchTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &batchTx{tx: tx}, nil
}

type batchTx struct {
	tx *sql.Tx
}

func (b *batchTx) Commit() error   { return b.tx.Commit() }
func (b *batchTx) Rollback() error { return b.tx.Rollback() }

// ensureCategory creates a placeholder category for an id a till referenced
// before pushing the category itself.
func (b *batchTx) ensureCategory(ctx context.Context, id string) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO categories (id, name) VALUES ($1, $1)
		ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("ensuring category %s: %w", id, err)
	}

	return nil
}

func (b *batchTx) UpsertCategories(ctx context.Context, categories []record.Category) error {
	query := `
		INSERT INTO categories (id, name, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			is_default = EXCLUDED.is_default,
			updated_at = NOW()`

	for _, c := range categories {
		if _, err := b.tx.ExecContext(ctx, query, c.ID, c.Name, c.IsDefault); err != nil {
			return fmt.Errorf("upserting category %s: %w", c.ID, err)
		}
	}

	return nil
}

func (b *batchTx) UpsertProducts(ctx context.Context, products []record.Product) error {
	query := `
		INSERT INTO products (id, name, category_id, price, active, order_frequency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category_id = EXCLUDED.category_id,
			price = EXCLUDED.price,
			active = EXCLUDED.active,
			order_frequency = EXCLUDED.order_frequency,
			updated_at = NOW()`

	for _, p := range products {
		if err := b.ensureCategory(ctx, p.CategoryID); err != nil {
			return err
		}

		if _, err := b.tx.ExecContext(ctx, query,
			p.ID, p.Name, p.CategoryID, p.Price, p.Active, p.OrderFrequency,
		); err != nil {
			return fmt.Errorf("upserting product %s: %w", p.ID, err)
		}
	}

	return nil
}

// UpsertTransactions replaces each transaction's line items. A line item whose
// product the store has never seen creates it under the uncategorized category.
func (b *batchTx) UpsertTransactions(ctx context.Context, txs []record.Transaction) error {
	query := `
		INSERT INTO transactions (id, date, sold_at, total, payment_mode, created_at, updated_at)
		VALUES ($1, $2::date, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			sold_at = EXCLUDED.sold_at,
			total = EXCLUDED.total,
			payment_mode = EXCLUDED.payment_mode,
			updated_at = NOW()`

	connectProduct := `
		INSERT INTO products (id, name, category_id, price, active, order_frequency)
		VALUES ($1, $2, $3, $4, TRUE, 0)
		ON CONFLICT (id) DO NOTHING`

	insertItem := `
		INSERT INTO line_items (transaction_id, position, product_id, product_name, price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, t := range txs {
		if _, err := b.tx.ExecContext(ctx, query,
			t.ID, t.Date, t.Timestamp, t.Total, t.PaymentMode,
		); err != nil {
			return fmt.Errorf("upserting transaction %s: %w", t.ID, err)
		}

		if _, err := b.tx.ExecContext(ctx, `DELETE FROM line_items WHERE transaction_id = $1`, t.ID); err != nil {
			return fmt.Errorf("clearing line items of %s: %w", t.ID, err)
		}

		for i, it := range t.Items {
			if _, err := b.tx.ExecContext(ctx, connectProduct,
				it.ProductID, it.ProductName, record.UncategorizedID, it.Price,
			); err != nil {
				return fmt.Errorf("connecting product %s: %w", it.ProductID, err)
			}

			if _, err := b.tx.ExecContext(ctx, insertItem,
				t.ID, i, it.ProductID, it.ProductName, it.Price, it.Quantity, it.Subtotal,
			); err != nil {
				return fmt.Errorf("inserting line item %d of %s: %w", i, t.ID, err)
			}
		}
	}

	return nil
}

func (b *batchTx) UpsertExpenses(ctx context.Context, expenses []record.Expense) error {
	query := `
		INSERT INTO expenses (id, title, category, amount, date, notes, created_at_ms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			amount = EXCLUDED.amount,
			date = EXCLUDED.date,
			notes = EXCLUDED.notes,
			updated_at = NOW()`

	for _, e := range expenses {
		if _, err := b.tx.ExecContext(ctx, query,
			e.ID, e.Title, e.Category, e.Amount, e.Date, e.Notes, e.CreatedAt,
		); err != nil {
			return fmt.Errorf("upserting expense %s: %w", e.ID, err)
		}
	}

	return nil
}

func (b *batchTx) UpsertReports(ctx context.Context, reports []record.DailyReport) error {
	query := `
		INSERT INTO daily_reports (
			id, date, archived_at, opening_cash,
			total_sales, cash_sales, upi_sales, card_sales, total_items,
			total_expenses, net_profit, transaction_count, transactions, expenses,
			created_at, updated_at
		)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			archived_at = EXCLUDED.archived_at,
			opening_cash = EXCLUDED.opening_cash,
			total_sales = EXCLUDED.total_sales,
			cash_sales = EXCLUDED.cash_sales,
			upi_sales = EXCLUDED.upi_sales,
			card_sales = EXCLUDED.card_sales,
			total_items = EXCLUDED.total_items,
			total_expenses = EXCLUDED.total_expenses,
			net_profit = EXCLUDED.net_profit,
			transaction_count = EXCLUDED.transaction_count,
			transactions = EXCLUDED.transactions,
			expenses = EXCLUDED.expenses,
			updated_at = NOW()`

	for _, r := range reports {
		txs, exps, err := encodeSnapshot(r)
		if err != nil {
			return err
		}

		if _, err := b.tx.ExecContext(ctx, query,
			r.ID, r.Date, r.ArchivedAt, r.OpeningCash,
			r.Summary.TotalSales, r.Summary.CashSales, r.Summary.UPISales, r.Summary.CardSales, r.Summary.TotalItems,
			r.TotalExpenses, r.NetProfit, r.TransactionCount, txs, exps,
		); err != nil {
			return fmt.Errorf("upserting report %s: %w", r.ID, err)
		}
	}

	return nil
}

func encodeSnapshot(r record.DailyReport) (string, string, error) {
	txs := r.Transactions
	if txs == nil {
		txs = []record.Transaction{}
	}

	exps := r.Expenses
	if exps == nil {
		exps = []record.Expense{}
	}

	rawTxs, err := json.Marshal(txs)
	if err != nil {
		return "", "", fmt.Errorf("encoding transactions of report %s: %w", r.ID, err)
	}

	rawExps, err := json.Marshal(exps)
	if err != nil {
		return "", "", fmt.Errorf("encoding expenses of report %s: %w", r.ID, err)
	}

	return string(rawTxs), string(rawExps), nil
}

func (s *Store) ListCategories(ctx context.Context) ([]record.Category, error) {
	query := `SELECT id, name, is_default FROM categories ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := []record.Category{}

	for rows.Next() {
		var c record.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context) ([]record.Product, error) {
	query := `
		SELECT id, name, category_id, price, active, order_frequency
		FROM products
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	products := []record.Product{}

	for rows.Next() {
		var p record.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.Price, &p.Active, &p.OrderFrequency); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}

		products = append(products, p)
	}

	return products, rows.Err()
}

func (s *Store) ListTransactions(ctx context.Context) ([]record.Transaction, error) {
	items, err := s.lineItems(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, to_char(date, 'YYYY-MM-DD'), sold_at, total, payment_mode
		FROM transactions
		ORDER BY sold_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	txs := []record.Transaction{}

	for rows.Next() {
		var t record.Transaction

		var mode string

		if err := rows.Scan(&t.ID, &t.Date, &t.Timestamp, &t.Total, &mode); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		t.PaymentMode = record.PaymentMode(mode)

		t.Items = items[t.ID]
		if t.Items == nil {
			t.Items = []record.LineItem{}
		}

		txs = append(txs, t)
	}

	return txs, rows.Err()
}

func (s *Store) lineItems(ctx context.Context) (map[string][]record.LineItem, error) {
	query := `
		SELECT transaction_id, product_id, product_name, price, quantity, subtotal
		FROM line_items
		ORDER BY transaction_id ASC, position ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing line items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]record.LineItem)

	for rows.Next() {
		var txID string

		var it record.LineItem

		if err := rows.Scan(&txID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scanning line item: %w", err)
		}

		items[txID] = append(items[txID], it)
	}

	return items, rows.Err()
}

func (s *Store) ListExpenses(ctx context.Context) ([]record.Expense, error) {
	query := `
		SELECT id, title, category, amount, to_char(date, 'YYYY-MM-DD'), notes, created_at_ms
		FROM expenses
		ORDER BY date DESC, created_at_ms DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	expenses := []record.Expense{}

	for rows.Next() {
		var e record.Expense

		var category string

		if err := rows.Scan(&e.ID, &e.Title, &category, &e.Amount, &e.Date, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		e.Category = record.ExpenseCategory(category)
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

const selectReportColumns = `
	id, to_char(date, 'YYYY-MM-DD'), archived_at, opening_cash,
	total_sales, cash_sales, upi_sales, card_sales, total_items,
	total_expenses, net_profit, transaction_count, transactions, expenses
`

// scanReport reads a report row in selectReportColumns order.
func scanReport(sc scanner) (record.DailyReport, error) {
	var r record.DailyReport

	var rawTxs, rawExps []byte

	if err := sc.Scan(
		&r.ID, &r.Date, &r.ArchivedAt, &r.OpeningCash,
		&r.Summary.TotalSales, &r.Summary.CashSales, &r.Summary.UPISales, &r.Summary.CardSales, &r.Summary.TotalItems,
		&r.TotalExpenses, &r.NetProfit, &r.TransactionCount, &rawTxs, &rawExps,
	); err != nil {
		return record.DailyReport{}, err
	}

	if err := json.Unmarshal(rawTxs, &r.Transactions); err != nil {
		return record.DailyReport{}, fmt.Errorf("decoding transactions of report %s: %w", r.ID, err)
	}

	if err := json.Unmarshal(rawExps, &r.Expenses); err != nil {
		return record.DailyReport{}, fmt.Errorf("decoding expenses of report %s: %w", r.ID, err)
	}

	return r, nil
}

// ListReports returns at most limit reports, most recently archived first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]record.DailyReport, error) {
	query := `SELECT ` + selectReportColumns + `
		FROM daily_reports
		ORDER BY archived_at DESC, id ASC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	reports := []record.DailyReport{}

	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}

		reports = append(reports, r)
	}

	return reports, rows.Err()
}
