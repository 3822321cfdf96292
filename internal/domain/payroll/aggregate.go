package payroll

// TotalNetPay is the payroll total: the sum of every payslip's net pay.
func TotalNetPay(payslips []Payslip) float64 {
	var total float64
	for _, p := range payslips {
		if finite(p.NetPay) {
			total += p.NetPay
		}
	}
	return total
}

func Summarize(p Payroll) Summary {
	var gross, deductions float64
	for _, slip := range p.Payslips {
		if finite(slip.GrossSalary) {
			gross += slip.GrossSalary
		}
		if finite(slip.TotalDeductions) {
			deductions += slip.TotalDeductions
		}
	}
	return Summary{
		Period:          p.Period,
		Headcount:       len(p.Payslips),
		TotalGross:      gross,
		TotalDeductions: deductions,
		TotalNet:        TotalNetPay(p.Payslips),
	}
}
