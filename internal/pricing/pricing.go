// Package pricing converts catalog USD prices into listed store prices.
//
// The listed price is the USD market price converted at the current
// exchange rate with VAT added on top, then bumped to the store's minimum
// price bands: anything under 5 lists at 5, under 8 at 8, under 10 at 10,
// and everything above is rounded up to a whole unit. Listed prices are
// always whole currency amounts.
package pricing

import "github.com/shopspring/decimal"

var (
	bandLow  = decimal.NewFromInt(5)
	bandMid  = decimal.NewFromInt(8)
	bandHigh = decimal.NewFromInt(10)
	hundred  = decimal.NewFromInt(100)
)

// Calculator computes listed prices for one VAT rate.
type Calculator struct {
	vatFactor decimal.Decimal
}

// NewCalculator creates a calculator for the given VAT percentage.
func NewCalculator(vatPercent int) *Calculator {
	vat := decimal.NewFromInt(int64(vatPercent)).Div(hundred)
	return &Calculator{vatFactor: decimal.NewFromInt(1).Add(vat)}
}

// ListedPrice converts a USD price string to the listed price string.
// Returns "" when the USD price is empty or not a number, so rows without
// a market price stay unpriced instead of failing the whole run.
func (c *Calculator) ListedPrice(usd string, rate decimal.Decimal) string {
	if usd == "" || rate.IsZero() {
		return ""
	}

	price, err := decimal.NewFromString(usd)
	if err != nil {
		return ""
	}

	converted := price.Mul(rate).Mul(c.vatFactor)
	switch {
	case converted.LessThan(bandLow):
		return "5"
	case converted.LessThan(bandMid):
		return "8"
	case converted.LessThan(bandHigh):
		return "10"
	default:
		return converted.Ceil().String()
	}
}
