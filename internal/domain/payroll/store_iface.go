package payroll

import "context"

type StoreAPI interface {
	PayrollExists(ctx context.Context, tenantID, period string) (bool, error)
	// InsertPayroll returns ErrDuplicatePeriod when the tenant already has a
	// payroll for the period.
	InsertPayroll(ctx context.Context, tenantID string, p Payroll) (Payroll, error)
	GetPayroll(ctx context.Context, tenantID, payrollID string) (Payroll, error)
	ListPayrolls(ctx context.Context, tenantID string, limit, offset int) ([]Payroll, error)
	CountPayrolls(ctx context.Context, tenantID string) (int, error)
	SavePayroll(ctx context.Context, tenantID string, p Payroll) (Payroll, error)
	DeletePayroll(ctx context.Context, tenantID, payrollID string) error
}
