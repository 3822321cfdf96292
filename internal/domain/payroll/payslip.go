package payroll

// RecalcPayslip refreshes hourly earnings and formula deductions, then
// derives gross, total deductions, net pay and base salary from the items.
// It is pure and idempotent.
func RecalcPayslip(p Payslip) Payslip {
	out := p.clone()
	out.Earnings = refreshEarnings(p.Earnings)
	out.Deductions = RecalculateDeductions(out.Earnings, p.Deductions)

	out.GrossSalary = sumAmounts(out.Earnings)
	out.TotalDeductions = sumAmounts(out.Deductions)
	out.NetPay = difference(out.GrossSalary, out.TotalDeductions)

	if base, ok := findItem(out.Earnings, BaseSalaryItemID); ok {
		out.BaseSalary = base.Amount
	} else if !finite(out.BaseSalary) {
		out.BaseSalary = 0
	}
	return out
}

func refreshEarnings(earnings []Item) []Item {
	out := make([]Item, len(earnings))
	for i, e := range earnings {
		out[i] = e.clone()
		if e.Hours != nil && e.HourlyRate != nil && finite(*e.Hours) && finite(*e.HourlyRate) {
			out[i].Amount = applyRate(*e.HourlyRate, *e.Hours)
		}
	}
	return out
}

func findItem(items []Item, id string) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func findPayslip(payslips []Payslip, id string) int {
	for i, p := range payslips {
		if p.ID == id {
			return i
		}
	}
	return -1
}
