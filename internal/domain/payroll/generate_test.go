package payroll

import (
	"errors"
	"testing"
	"time"

	"schoolpay/internal/domain/staff"
)

func roster() []staff.Member {
	return []staff.Member{
		{ID: "s1", FirstName: "Amina", LastName: "Idrissi", Role: staff.RoleTeacher, Status: staff.StatusActive, PaymentType: staff.PaymentSalary, PaymentRate: 10000},
		{ID: "s2", FirstName: "Karim", LastName: "Benali", Role: staff.RoleSupport, Status: staff.StatusInactive, PaymentType: staff.PaymentSalary, PaymentRate: 9000},
		{ID: "s3", FirstName: "Sara", LastName: "Tazi", Role: staff.RoleAdmin, Status: staff.StatusActive, PaymentType: staff.PaymentSalary, PaymentRate: 8000},
		{ID: "s4", FirstName: "Omar", LastName: "Alaoui", Role: staff.RoleTeacher, Status: staff.StatusActive, PaymentType: staff.PaymentCommission, PaymentRate: 0.2},
	}
}

func TestBuildPayroll(t *testing.T) {
	now := time.Date(2024, 7, 31, 10, 0, 0, 0, time.UTC)
	p, err := BuildPayroll(" July 2024 ", roster(), now)
	if err != nil {
		t.Fatalf("build payroll: %v", err)
	}
	if p.Period != "July 2024" {
		t.Fatalf("unexpected period %q", p.Period)
	}
	if len(p.Payslips) != 2 {
		t.Fatalf("expected 2 payslips, got %d", len(p.Payslips))
	}
	if p.TotalAmount != 16200 {
		t.Fatalf("expected total 16200, got %v", p.TotalAmount)
	}
	if !p.RunDate.Equal(now) {
		t.Fatalf("unexpected run date %v", p.RunDate)
	}

	first := p.Payslips[0]
	if first.StaffID != "s1" || first.StaffName != "Amina Idrissi" || first.StaffRole != "teacher" {
		t.Fatalf("unexpected payslip identity %+v", first)
	}
	if first.ID == "" || first.ID == p.Payslips[1].ID {
		t.Fatal("expected unique payslip ids")
	}
	if first.GrossSalary != 10000 || first.TotalDeductions != 1000 || first.NetPay != 9000 || first.BaseSalary != 10000 {
		t.Fatalf("unexpected totals %+v", first)
	}
	if len(first.Earnings) != 2 || first.Earnings[1].ID != BonusItemID || first.Earnings[1].Amount != 0 {
		t.Fatalf("unexpected earnings %+v", first.Earnings)
	}
	w := first.Deductions[0]
	if w.ID != WithholdingItemID || w.Rate == nil || *w.Rate != GenerationWithholdingRate || w.Category != CategoryPercentage {
		t.Fatalf("unexpected withholding item %+v", w)
	}
}

func TestBuildPayrollIsStableUnderRecalc(t *testing.T) {
	p, err := BuildPayroll("August 2024", roster(), time.Now())
	if err != nil {
		t.Fatalf("build payroll: %v", err)
	}
	for _, slip := range p.Payslips {
		again := RecalcPayslip(slip)
		if again.NetPay != slip.NetPay || again.TotalDeductions != slip.TotalDeductions {
			t.Fatalf("recalculation changed generated payslip: %+v vs %+v", slip, again)
		}
	}
}

func TestBuildPayrollRejections(t *testing.T) {
	if _, err := BuildPayroll("  ", roster(), time.Now()); !errors.Is(err, ErrPeriodRequired) {
		t.Fatalf("expected ErrPeriodRequired, got %v", err)
	}
	onlyInactive := roster()[1:2]
	if _, err := BuildPayroll("July 2024", onlyInactive, time.Now()); !errors.Is(err, ErrNoEligibleStaff) {
		t.Fatalf("expected ErrNoEligibleStaff, got %v", err)
	}
	if _, err := BuildPayroll("July 2024", nil, time.Now()); !errors.Is(err, ErrNoEligibleStaff) {
		t.Fatalf("expected ErrNoEligibleStaff, got %v", err)
	}
}

func TestTotalNetPayAndSummarize(t *testing.T) {
	if TotalNetPay(nil) != 0 {
		t.Fatal("expected zero total for no payslips")
	}
	p := Payroll{
		Period: "July 2024",
		Payslips: []Payslip{
			{GrossSalary: 1000.1, TotalDeductions: 100.01, NetPay: 900.09},
			{GrossSalary: 2000.2, TotalDeductions: 200.02, NetPay: 1800.18},
		},
	}
	if got := TotalNetPay(p.Payslips); got != 2700.27 {
		t.Fatalf("expected 2700.27, got %v", got)
	}
	s := Summarize(p)
	wantDeductions := p.Payslips[0].TotalDeductions + p.Payslips[1].TotalDeductions
	if s.Headcount != 2 || s.TotalGross != 3000.3 || s.TotalDeductions != wantDeductions || s.TotalNet != 2700.27 {
		t.Fatalf("unexpected summary %+v", s)
	}
}
