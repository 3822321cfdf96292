package payroll

import "context"

// Draft holds an optimistic edit of a payroll. Apply changes the local copy
// immediately, Commit persists it and restores the snapshot when the write
// fails, Rollback discards local changes.
type Draft struct {
	snapshot Payroll
	current  Payroll
}

func NewDraft(p Payroll) *Draft {
	return &Draft{snapshot: p.clone(), current: p.clone()}
}

func (d *Draft) Current() Payroll {
	return d.current.clone()
}

// Apply runs mutate against one payslip, recalculates it and refreshes the
// payroll total. A mutate error leaves the draft as it was.
func (d *Draft) Apply(payslipID string, mutate func(Payslip) (Payslip, error)) error {
	idx := findPayslip(d.current.Payslips, payslipID)
	if idx < 0 {
		return ErrPayslipNotFound
	}
	updated, err := mutate(d.current.Payslips[idx].clone())
	if err != nil {
		return err
	}
	d.current.Payslips[idx] = RecalcPayslip(updated)
	d.current.TotalAmount = TotalNetPay(d.current.Payslips)
	return nil
}

func (d *Draft) Commit(ctx context.Context, persist func(context.Context, Payroll) (Payroll, error)) (Payroll, error) {
	saved, err := persist(ctx, d.current.clone())
	if err != nil {
		d.Rollback()
		return Payroll{}, err
	}
	d.snapshot = saved.clone()
	d.current = saved.clone()
	return saved, nil
}

func (d *Draft) Rollback() {
	d.current = d.snapshot.clone()
}
