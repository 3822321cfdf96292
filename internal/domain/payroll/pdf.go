package payroll

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// DocumentInfo is printed on every generated document.
type DocumentInfo struct {
	SchoolName string
	Currency   string
}

func renderPayslipPDF(info DocumentInfo, period string, slip Payslip) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s", slip.StaffName, period), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(info.SchoolName))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Payslip")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr("Staff member: " + slip.StaffName))
	pdf.Ln(6)
	if slip.StaffRole != "" {
		pdf.Cell(0, 7, "Role: " + slip.StaffRole)
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, tr("Period: " + period))
	pdf.Ln(10)

	itemTable(pdf, tr, "Earnings", slip.Earnings, info.Currency)
	itemTable(pdf, tr, "Deductions", slip.Deductions, info.Currency)

	pdf.SetFont("Helvetica", "B", 11)
	totalRow(pdf, "Gross salary", slip.GrossSalary, info.Currency)
	totalRow(pdf, "Total deductions", slip.TotalDeductions, info.Currency)
	totalRow(pdf, "Net pay", slip.NetPay, info.Currency)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func itemTable(pdf *gofpdf.Fpdf, tr func(string) string, title string, items []Item, currency string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 7, title, "B", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(items) == 0 {
		pdf.CellFormat(180, 6, "None", "", 1, "L", false, 0, "")
	}
	for _, it := range items {
		label := it.Label
		if it.Rate != nil && it.formulaDriven() {
			label = fmt.Sprintf("%s (%g%%)", it.Label, *it.Rate*100)
		}
		pdf.CellFormat(120, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, money(it.Amount, currency), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func totalRow(pdf *gofpdf.Fpdf, label string, amount float64, currency string) {
	pdf.CellFormat(120, 7, label, "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, money(amount, currency), "T", 1, "R", false, 0, "")
}

func money(amount float64, currency string) string {
	return fmt.Sprintf("%s %s", dec(amount).StringFixed(2), currency)
}

// archivePayslip writes a copy of a rendered payslip under dir, sealed when
// the service has an encryption key.
func (s *Service) archivePayslip(payrollID, payslipID string, data []byte) (string, error) {
	if s.archiveDir == "" {
		return "", nil
	}
	dir := filepath.Join(s.archiveDir, payrollID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, payslipID+".pdf")
	if s.sealer.Enabled() {
		sealed, err := s.sealer.Seal(data)
		if err != nil {
			return "", err
		}
		data = sealed
		path += ".enc"
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
