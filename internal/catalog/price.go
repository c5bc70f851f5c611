package catalog

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errInvalidPrice = errors.New("invalid price")

// parsePrice accepts "40", "₹ 1,250.00", "1,00,000", "1.250,50" and "12,5".
// When both separators appear the last one is decimal. A comma-only price
// is grouped thousands (western or lakh) when every comma is followed by a
// well-formed group, otherwise a single comma is decimal.
func parsePrice(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		}

		return -1
	}, s)

	if clean == "" {
		return decimal.Zero, errInvalidPrice
	}

	dot, comma := strings.LastIndex(clean, "."), strings.LastIndex(clean, ",")

	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0:
		switch {
		case grouped(clean):
			clean = strings.ReplaceAll(clean, ",", "")
		case strings.Count(clean, ",") == 1:
			clean = strings.Replace(clean, ",", ".", 1)
		default:
			return decimal.Zero, errInvalidPrice
		}
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, errInvalidPrice
	}

	if d.IsNegative() {
		return decimal.Zero, errors.New("negative price")
	}

	return d.Round(2), nil
}

// grouped reports whether s is digits split by commas into thousands:
// "1,250", "1,234,567" or the lakh form "1,00,000". The last group has
// three digits and the groups between the first and last are all two or
// all three digits wide.
func grouped(s string) bool {
	groups := strings.Split(strings.TrimPrefix(s, "-"), ",")
	if len(groups) < 2 {
		return false
	}

	if n := len(groups[0]); n < 1 || n > 3 {
		return false
	}

	if len(groups[len(groups)-1]) != 3 {
		return false
	}

	middle := groups[1 : len(groups)-1]
	for _, g := range middle {
		if len(g) != len(middle[0]) || (len(g) != 2 && len(g) != 3) {
			return false
		}
	}

	return true
}
