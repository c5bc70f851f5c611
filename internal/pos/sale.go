package pos

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

// SaleLine is one product and quantity on the cart.
type SaleLine struct {
	ProductID string
	Quantity  int
}

// RecordSale stores a completed sale priced from the current menu and bumps
// the order frequency of every product sold.
func (s *Service) RecordSale(ctx context.Context, lines []SaleLine, mode record.PaymentMode) (record.Transaction, error) {
	if len(lines) == 0 {
		return record.Transaction{}, ErrEmptySale
	}

	products, err := s.cols.Products.Load(ctx)
	if err != nil {
		return record.Transaction{}, err
	}

	now := s.now()
	tx := record.Transaction{
		ID:          s.newID(),
		Date:        now.Format(time.DateOnly),
		Timestamp:   now.UnixMilli(),
		Total:       decimal.Zero,
		PaymentMode: mode,
		SyncStatus:  record.StatusPending,
	}

	sold := make(map[string]int, len(lines))

	for _, line := range lines {
		p, ok := find(products, line.ProductID)
		if !ok {
			return record.Transaction{}, fmt.Errorf("%w: product %s", ErrNotFound, line.ProductID)
		}

		if line.Quantity <= 0 {
			return record.Transaction{}, fmt.Errorf("%w: quantity %d for %s", ErrInvalid, line.Quantity, p.Name)
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))

		tx.Items = append(tx.Items, record.LineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    line.Quantity,
			Subtotal:    subtotal,
		})
		tx.Total = tx.Total.Add(subtotal)
		sold[p.ID] += line.Quantity
	}

	if err := s.check(tx); err != nil {
		return record.Transaction{}, err
	}

	err = s.cols.Transactions.Update(ctx, func(txs []record.Transaction) ([]record.Transaction, error) {
		return append(txs, tx), nil
	})
	if err != nil {
		return record.Transaction{}, err
	}

	err = s.cols.Products.Update(ctx, func(products []record.Product) ([]record.Product, error) {
		for i, p := range products {
			if n, ok := sold[p.ID]; ok {
				products[i].OrderFrequency += n
				products[i].SyncStatus = record.StatusPending
			}
		}

		return products, nil
	})
	if err != nil {
		// The sale itself is stored; only the menu ordering is stale.
		s.logger.Error("failed to update order frequency", "error", err, "transaction", tx.ID)
	}

	s.changed("record sale", tx.ID)

	return tx, nil
}

// TransactionsOn lists the sales of date, newest first.
func (s *Service) TransactionsOn(ctx context.Context, date string) ([]record.Transaction, error) {
	txs, err := s.cols.Transactions.Load(ctx)
	if err != nil {
		return nil, err
	}

	txs = slices.DeleteFunc(txs, func(t record.Transaction) bool { return t.Date != date })
	slices.SortStableFunc(txs, func(a, b record.Transaction) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	return txs, nil
}
