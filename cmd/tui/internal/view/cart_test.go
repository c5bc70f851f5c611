package view

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/tillsync/internal/pos"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

func TestProductsModel_Cart(t *testing.T) {
	m := NewProductsModel(nil)
	m.products = []record.Product{
		{ID: "tea", Name: "Tea", Price: decimal.NewFromInt(15), Active: true},
		{ID: "vada", Name: "Vada", Price: decimal.RequireFromString("12.5"), Active: true},
		{ID: "old", Name: "Old", Price: decimal.NewFromInt(99), Active: false},
	}

	m.addToCart(m.products[0])
	m.addToCart(m.products[1])
	m.addToCart(m.products[0])
	m.addToCart(m.products[2])

	assert.Equal(t, []pos.SaleLine{
		{ProductID: "tea", Quantity: 2},
		{ProductID: "vada", Quantity: 1},
	}, m.cart)
	assert.Equal(t, "42.50", FormatMoney(m.cartTotal()))
	assert.Contains(t, m.status, "not active")
}

func TestParseMoney(t *testing.T) {
	d, err := ParseMoney(" 12,50 ")
	assert.NoError(t, err)
	assert.Equal(t, "12.50", FormatMoney(d))

	_, err = ParseMoney("abc")
	assert.Error(t, err)
}
