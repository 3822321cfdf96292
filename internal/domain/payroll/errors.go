package payroll

import "errors"

var (
	ErrNotFound          = errors.New("payroll not found")
	ErrPayslipNotFound   = errors.New("payslip not found")
	ErrItemNotFound      = errors.New("payslip item not found")
	ErrInvalidAmount     = errors.New("amount must be a number")
	ErrUnknownField      = errors.New("only label and amount can be edited")
	ErrInvalidItemType   = errors.New("item type must be earning or deduction")
	ErrInvalidCategory   = errors.New("unknown item category")
	ErrLabelRequired     = errors.New("item label is required")
	ErrDuplicateItemID   = errors.New("duplicate item id in payslip")
	ErrPeriodRequired    = errors.New("payroll period is required")
	ErrNoEligibleStaff   = errors.New("no eligible staff for payroll")
	ErrDuplicatePeriod   = errors.New("payroll already exists for period")
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrStore is what callers see for any persistence failure; the cause is logged.
	ErrStore = errors.New("payroll storage is unavailable, please retry")
)
