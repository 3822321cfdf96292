package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolpay/internal/domain/staff"
)

// BuildPayroll computes a new payroll for period from the staff roster.
// Members that are not eligible are skipped; ErrNoEligibleStaff is returned
// when nobody is left. The payroll has no ID until it is stored.
func BuildPayroll(period string, roster []staff.Member, now time.Time) (Payroll, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return Payroll{}, ErrPeriodRequired
	}

	eligible := staff.EligibleForPayroll(roster)
	if len(eligible) == 0 {
		return Payroll{}, ErrNoEligibleStaff
	}

	payslips := make([]Payslip, 0, len(eligible))
	for _, m := range eligible {
		payslips = append(payslips, BuildPayslip(m, period))
	}
	return Payroll{
		Period:      period,
		Payslips:    payslips,
		TotalAmount: TotalNetPay(payslips),
		RunDate:     now.UTC(),
	}, nil
}

// BuildPayslip lays out the generated items for one member: the monthly
// salary, a zero bonus and the withholding deduction.
func BuildPayslip(m staff.Member, period string) Payslip {
	slip := Payslip{
		ID:        uuid.NewString(),
		StaffID:   m.ID,
		StaffName: m.FullName(),
		StaffRole: string(m.Role),
		Period:    period,
		Earnings: []Item{
			{ID: BaseSalaryItemID, Label: "Base salary", Amount: m.PaymentRate, Type: ItemEarning, Category: CategoryBase, Taxable: boolPtr(true)},
			{ID: BonusItemID, Label: "Bonus", Amount: 0, Type: ItemEarning, Category: CategoryBonus, Taxable: boolPtr(true)},
		},
		Deductions: []Item{
			{
				ID:       WithholdingItemID,
				Label:    fmt.Sprintf("Withholding (%g%%)", GenerationWithholdingRate*100),
				Type:     ItemDeduction,
				Category: CategoryPercentage,
				Rate:     floatPtr(GenerationWithholdingRate),
			},
		},
		BaseSalary: m.PaymentRate,
	}
	return RecalcPayslip(slip)
}
