package view

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

func (m ProductsModel) cartTotal() decimal.Decimal {
	total := decimal.Zero

	for _, line := range m.cart {
		if p, ok := findProduct(m.products, line.ProductID); ok {
			total = total.Add(p.Price.Mul(decimalInt(line.Quantity)))
		}
	}

	return total
}

func findProduct(products []record.Product, id string) (record.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}

	return record.Product{}, false
}

func decimalInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
