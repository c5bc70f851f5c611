package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const storeTimeout = 5 * time.Second

// FormatMoney renders an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatTime renders a Unix millisecond timestamp as local wall clock time.
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).Format("15:04")
}

// ParseMoney accepts "12", "12.5" or "12,50".
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not an amount: %q", s)
	}

	return d, nil
}

// StoreCtx returns a context with a standard timeout for local store calls.
func StoreCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// Today is the current local date in record format.
func Today() string {
	return time.Now().Format(time.DateOnly)
}
