package payroll

import (
	"bytes"
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

type RegisterRow struct {
	StaffID         string  `csv:"staff_id"`
	StaffName       string  `csv:"staff_name"`
	StaffRole       string  `csv:"role"`
	Period          string  `csv:"period"`
	BaseSalary      float64 `csv:"base_salary"`
	GrossSalary     float64 `csv:"gross_salary"`
	TotalDeductions float64 `csv:"total_deductions"`
	NetPay          float64 `csv:"net_pay"`
	Currency        string  `csv:"currency"`
}

// Export is a rendered payroll register ready to be downloaded.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

func registerRows(p Payroll, currency string) []RegisterRow {
	rows := make([]RegisterRow, 0, len(p.Payslips))
	for _, slip := range p.Payslips {
		rows = append(rows, RegisterRow{
			StaffID:         slip.StaffID,
			StaffName:       slip.StaffName,
			StaffRole:       slip.StaffRole,
			Period:          p.Period,
			BaseSalary:      slip.BaseSalary,
			GrossSalary:     slip.GrossSalary,
			TotalDeductions: slip.TotalDeductions,
			NetPay:          slip.NetPay,
			Currency:        currency,
		})
	}
	return rows
}

func exportRegister(p Payroll, format, currency string) (Export, error) {
	rows := registerRows(p, currency)
	switch format {
	case ExportCSV:
		data, err := registerCSV(rows)
		if err != nil {
			return Export{}, err
		}
		return Export{Filename: exportName(p, format), ContentType: "text/csv", Data: data}, nil
	case ExportXLSX:
		data, err := registerXLSX(rows, Summarize(p))
		if err != nil {
			return Export{}, err
		}
		return Export{
			Filename:    exportName(p, format),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return Export{}, ErrUnsupportedFormat
	}
}

func registerCSV(rows []RegisterRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const registerSheet = "Register"

func registerXLSX(rows []RegisterRow, summary Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}

	header := []any{"Staff ID", "Staff name", "Role", "Period", "Base salary", "Gross salary", "Total deductions", "Net pay", "Currency"}
	if err := f.SetSheetRow(registerSheet, "A1", &header); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(registerSheet, "A1", "I1", style)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{r.StaffID, r.StaffName, r.StaffRole, r.Period, r.BaseSalary, r.GrossSalary, r.TotalDeductions, r.NetPay, r.Currency}
		if err := f.SetSheetRow(registerSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	totalCell, err := excelize.CoordinatesToCellName(1, len(rows)+2)
	if err != nil {
		return nil, err
	}
	totals := []any{"Total", fmt.Sprintf("%d staff", summary.Headcount), "", summary.Period, "", summary.TotalGross, summary.TotalDeductions, summary.TotalNet}
	if err := f.SetSheetRow(registerSheet, totalCell, &totals); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportName(p Payroll, format string) string {
	return fmt.Sprintf("payroll-register-%s.%s", slug(p.Period), format)
}

func slug(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			if len(out) > 0 && out[len(out)-1] != '-' {
				out = append(out, '-')
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "payroll"
	}
	return string(out)
}
