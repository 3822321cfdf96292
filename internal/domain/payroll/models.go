package payroll

import "time"

type Item struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Amount     float64  `json:"amount"`
	Type       ItemType `json:"type"`
	Category   Category `json:"category,omitempty"`
	Rate       *float64 `json:"rate,omitempty"`
	Taxable    *bool    `json:"taxable,omitempty"`
	Hours      *float64 `json:"hours,omitempty"`
	HourlyRate *float64 `json:"hourlyRate,omitempty"`
}

// Payslip is one staff member's pay for one period. GrossSalary,
// TotalDeductions, NetPay and BaseSalary are derived from the item lists by
// RecalcPayslip and are never edited directly.
type Payslip struct {
	ID              string  `json:"id"`
	StaffID         string  `json:"staffId"`
	StaffName       string  `json:"staffName"`
	StaffRole       string  `json:"staffRole"`
	Period          string  `json:"period"`
	Earnings        []Item  `json:"earnings"`
	Deductions      []Item  `json:"deductions"`
	BaseSalary      float64 `json:"baseSalary"`
	GrossSalary     float64 `json:"grossSalary"`
	TotalDeductions float64 `json:"totalDeductions"`
	NetPay          float64 `json:"netPay"`
}

type Payroll struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	Period      string    `json:"period"`
	Payslips    []Payslip `json:"payslips"`
	TotalAmount float64   `json:"totalAmount"`
	RunDate     time.Time `json:"runDate"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CreatedBy   string    `json:"createdBy,omitempty"`
}

// Update is a partial change to a payroll. Payslips listed replace the
// stored payslip with the same ID; payslips not listed are kept as they are.
type Update struct {
	Payslips []Payslip `json:"payslips"`
}

// GenerateResult reports a generation attempt. Rejections are values with
// Success false and a Reason, not errors.
type GenerateResult struct {
	Success bool     `json:"success"`
	Payroll *Payroll `json:"payroll,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

type Summary struct {
	Period          string  `json:"period"`
	Headcount       int     `json:"headcount"`
	TotalGross      float64 `json:"totalGross"`
	TotalDeductions float64 `json:"totalDeductions"`
	TotalNet        float64 `json:"totalNet"`
}

func (it Item) clone() Item {
	out := it
	out.Rate = cloneFloat(it.Rate)
	out.Hours = cloneFloat(it.Hours)
	out.HourlyRate = cloneFloat(it.HourlyRate)
	if it.Taxable != nil {
		v := *it.Taxable
		out.Taxable = &v
	}
	return out
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

func (p Payslip) clone() Payslip {
	out := p
	out.Earnings = cloneItems(p.Earnings)
	out.Deductions = cloneItems(p.Deductions)
	return out
}

func (p Payroll) clone() Payroll {
	out := p
	out.Payslips = make([]Payslip, len(p.Payslips))
	for i, slip := range p.Payslips {
		out.Payslips[i] = slip.clone()
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func floatPtr(v float64) *float64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
