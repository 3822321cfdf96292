package payroll

import (
	"math"

	"github.com/shopspring/decimal"
)

// Amounts are plain float64: formula items are rate × base with no rounding
// and totals are straight sums. decimal only formats amounts for display.

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func dec(v float64) decimal.Decimal {
	if !finite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// sumAmounts adds item amounts, counting non-finite ones as zero.
func sumAmounts(items []Item) float64 {
	var total float64
	for _, it := range items {
		if finite(it.Amount) {
			total += it.Amount
		}
	}
	return total
}

func difference(a, b float64) float64 {
	return a - b
}

func applyRate(rate, base float64) float64 {
	return rate * base
}
