package payroll

import "strings"

// SanitizePayslip normalizes a payslip that came from a client or from
// storage: labels are trimmed, item types follow the list an item sits in,
// non-finite numbers are dropped (optional) or zeroed (required), empty
// categories get a default and nil lists become empty.
func SanitizePayslip(p Payslip) Payslip {
	out := p.clone()
	out.StaffName = strings.TrimSpace(out.StaffName)
	out.Period = strings.TrimSpace(out.Period)
	out.Earnings = sanitizeItems(out.Earnings, ItemEarning)
	out.Deductions = sanitizeItems(out.Deductions, ItemDeduction)
	for _, v := range []*float64{&out.BaseSalary, &out.GrossSalary, &out.TotalDeductions, &out.NetPay} {
		if !finite(*v) {
			*v = 0
		}
	}
	return out
}

func sanitizeItems(items []Item, itemType ItemType) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		it.Label = strings.TrimSpace(it.Label)
		it.Type = itemType
		if !finite(it.Amount) {
			it.Amount = 0
		}
		it.Rate = finiteOrNil(it.Rate)
		it.Hours = finiteOrNil(it.Hours)
		it.HourlyRate = finiteOrNil(it.HourlyRate)
		if it.Category == "" {
			it.Category = CategoryCustom
			if it.Rate != nil && itemType == ItemDeduction {
				it.Category = CategoryPercentage
			}
		}
		out = append(out, it)
	}
	return out
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || !finite(*v) {
		return nil
	}
	return v
}

// ValidatePayslip checks what sanitizing cannot repair: item ids must be
// unique within the payslip, labels present and categories known.
func ValidatePayslip(p Payslip) error {
	seen := map[string]struct{}{}
	for _, list := range [][]Item{p.Earnings, p.Deductions} {
		for _, it := range list {
			if _, dup := seen[it.ID]; dup {
				return ErrDuplicateItemID
			}
			seen[it.ID] = struct{}{}
			if it.Label == "" {
				return ErrLabelRequired
			}
			if !it.Category.Valid() {
				return ErrInvalidCategory
			}
		}
	}
	return nil
}
