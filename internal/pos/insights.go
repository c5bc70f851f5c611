package pos

import (
	"cmp"
	"context"
	"slices"

	"github.com/shopspring/decimal"
)

const (
	DefaultTopProducts   = 5
	DefaultSlowThreshold = 2
)

// ProductSales is how much of one product sold on a day.
type ProductSales struct {
	ProductID   string
	ProductName string
	Quantity    int
	Revenue     decimal.Decimal
}

// TopProducts returns up to n products by quantity sold on date.
func (s *Service) TopProducts(ctx context.Context, date string, n int) ([]ProductSales, error) {
	sold, err := s.salesOn(ctx, date)
	if err != nil {
		return nil, err
	}

	top := make([]ProductSales, 0, len(sold))
	for _, ps := range sold {
		top = append(top, ps)
	}

	slices.SortFunc(top, func(a, b ProductSales) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}

		return cmp.Compare(a.ProductName, b.ProductName)
	})

	if n > 0 && len(top) > n {
		top = top[:n]
	}

	return top, nil
}

// SlowMovers returns active products that sold fewer than threshold units
// on date, slowest first.
func (s *Service) SlowMovers(ctx context.Context, date string, threshold int) ([]ProductSales, error) {
	sold, err := s.salesOn(ctx, date)
	if err != nil {
		return nil, err
	}

	products, err := s.cols.Products.Load(ctx)
	if err != nil {
		return nil, err
	}

	var slow []ProductSales

	for _, p := range products {
		if !p.Active {
			continue
		}

		ps, ok := sold[p.ID]
		if !ok {
			ps = ProductSales{ProductID: p.ID, Revenue: decimal.Zero}
		}

		ps.ProductName = p.Name

		if ps.Quantity < threshold {
			slow = append(slow, ps)
		}
	}

	slices.SortFunc(slow, func(a, b ProductSales) int {
		if c := cmp.Compare(a.Quantity, b.Quantity); c != 0 {
			return c
		}

		return cmp.Compare(a.ProductName, b.ProductName)
	})

	return slow, nil
}

func (s *Service) salesOn(ctx context.Context, date string) (map[string]ProductSales, error) {
	txs, err := s.TransactionsOn(ctx, date)
	if err != nil {
		return nil, err
	}

	sold := make(map[string]ProductSales)

	for _, tx := range txs {
		for _, item := range tx.Items {
			ps, ok := sold[item.ProductID]
			if !ok {
				ps = ProductSales{ProductID: item.ProductID, ProductName: item.ProductName, Revenue: decimal.Zero}
			}

			ps.Quantity += item.Quantity
			ps.Revenue = ps.Revenue.Add(item.Subtotal)
			sold[item.ProductID] = ps
		}
	}

	return sold, nil
}
