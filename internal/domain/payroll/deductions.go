package payroll

// formulaDriven reports whether a deduction's amount is derived from gross
// pay rather than entered by hand.
func (it Item) formulaDriven() bool {
	return it.Category != CategoryCustom && it.Rate != nil && finite(*it.Rate)
}

// RecalculateDeductions returns a copy of deductions in which every
// formula-driven item is recomputed as rate × gross, gross being the sum of
// earnings. Custom items pass through untouched. Order and length are kept
// and the inputs are never modified.
func RecalculateDeductions(earnings, deductions []Item) []Item {
	gross := sumAmounts(earnings)
	out := make([]Item, len(deductions))
	for i, d := range deductions {
		out[i] = d.clone()
		if d.formulaDriven() {
			out[i].Amount = applyRate(*d.Rate, gross)
		}
	}
	return out
}
