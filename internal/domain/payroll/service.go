package payroll

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"schoolpay/internal/domain/staff"
	"schoolpay/internal/platform/crypto"
	"schoolpay/internal/platform/jobs"
	"schoolpay/internal/platform/metrics"
)

type RosterSource interface {
	Roster(ctx context.Context, tenantID string) ([]staff.Member, error)
}

type IDSource interface {
	ItemID() string
}

type JobRunner interface {
	RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error)
}

type Service struct {
	store      StoreAPI
	roster     RosterSource
	ids        IDSource
	jobs       JobRunner
	metrics    *metrics.Collector
	sealer     *crypto.Sealer
	archiveDir string
	info       DocumentInfo
	now        func() time.Time
}

type Option func(*Service)

func WithJobRunner(runner JobRunner) Option {
	return func(s *Service) { s.jobs = runner }
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) { s.metrics = collector }
}

// WithArchive stores a copy of every rendered payslip under dir. The copy is
// sealed when sealer is enabled.
func WithArchive(dir string, sealer *crypto.Sealer) Option {
	return func(s *Service) {
		s.archiveDir = dir
		s.sealer = sealer
	}
}

func WithDocumentInfo(info DocumentInfo) Option {
	return func(s *Service) { s.info = info }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store StoreAPI, roster RosterSource, ids IDSource, opts ...Option) *Service {
	s := &Service{
		store:  store,
		roster: roster,
		ids:    ids,
		info:   DocumentInfo{SchoolName: "School", Currency: "MAD"},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeErr logs the cause of a persistence failure and hides it behind
// ErrStore. Domain errors pass through.
func storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	slog.Error("payroll store failed", "op", op, "err", err)
	return ErrStore
}

// GeneratePayroll creates the payroll for period. A period that already has
// a payroll, or a roster without eligible staff, yields an unsuccessful
// result rather than an error; errors are reserved for invalid input and
// storage failures.
func (s *Service) GeneratePayroll(ctx context.Context, tenantID, actorID, period string) (GenerateResult, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return GenerateResult{}, ErrPeriodRequired
	}

	var result GenerateResult
	run := func(ctx context.Context) (any, error) {
		var err error
		result, err = s.generate(ctx, tenantID, actorID, period)
		if err != nil {
			return nil, err
		}
		details := map[string]any{"period": period, "success": result.Success}
		if result.Success {
			details["payrollId"] = result.Payroll.ID
			details["payslips"] = len(result.Payroll.Payslips)
			details["totalAmount"] = result.Payroll.TotalAmount
		} else {
			details["reason"] = result.Reason
		}
		return details, nil
	}

	var err error
	if s.jobs != nil {
		_, err = s.jobs.RunNow(ctx, jobs.JobPayrollGenerate, tenantID, run)
	} else {
		_, err = run(ctx)
	}
	if err != nil {
		return GenerateResult{}, err
	}

	if result.Success {
		s.metrics.Add(metrics.PayrollGenerated, 1)
	} else {
		s.metrics.Add(metrics.PayrollGenerationRejected, 1)
	}
	return result, nil
}

func (s *Service) generate(ctx context.Context, tenantID, actorID, period string) (GenerateResult, error) {
	exists, err := s.store.PayrollExists(ctx, tenantID, period)
	if err != nil {
		return GenerateResult{}, storeErr("payroll exists", err)
	}
	if exists {
		return GenerateResult{Reason: ReasonAlreadyGenerated}, nil
	}

	roster, err := s.roster.Roster(ctx, tenantID)
	if err != nil {
		return GenerateResult{}, storeErr("load roster", err)
	}

	p, err := BuildPayroll(period, roster, s.now())
	if errors.Is(err, ErrNoEligibleStaff) {
		return GenerateResult{Reason: ReasonNoEligibleStaff}, nil
	}
	if err != nil {
		return GenerateResult{}, err
	}
	p.TenantID = tenantID
	p.CreatedBy = actorID

	saved, err := s.store.InsertPayroll(ctx, tenantID, p)
	if errors.Is(err, ErrDuplicatePeriod) {
		return GenerateResult{Reason: ReasonAlreadyGenerated}, nil
	}
	if err != nil {
		return GenerateResult{}, storeErr("insert payroll", err)
	}
	return GenerateResult{Success: true, Payroll: &saved}, nil
}

func (s *Service) GetPayroll(ctx context.Context, tenantID, payrollID string) (Payroll, error) {
	p, err := s.store.GetPayroll(ctx, tenantID, payrollID)
	if err != nil {
		return Payroll{}, storeErr("get payroll", err)
	}
	return p, nil
}

func (s *Service) ListPayrolls(ctx context.Context, tenantID string, limit, offset int) ([]Payroll, int, error) {
	total, err := s.store.CountPayrolls(ctx, tenantID)
	if err != nil {
		return nil, 0, storeErr("count payrolls", err)
	}
	payrolls, err := s.store.ListPayrolls(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, storeErr("list payrolls", err)
	}
	return payrolls, total, nil
}

// UpdatePayroll applies a partial update. Every payslip of the payroll is
// sanitized and recalculated before the document is written back, and the
// total is recomputed from the result. It returns the stored payroll as it
// was before the update along with the saved result.
func (s *Service) UpdatePayroll(ctx context.Context, tenantID, payrollID string, update Update) (Payroll, Payroll, error) {
	current, err := s.store.GetPayroll(ctx, tenantID, payrollID)
	if err != nil {
		return Payroll{}, Payroll{}, storeErr("get payroll", err)
	}

	next := current.clone()
	for _, incoming := range update.Payslips {
		idx := findPayslip(next.Payslips, incoming.ID)
		if idx < 0 {
			return Payroll{}, Payroll{}, ErrPayslipNotFound
		}
		next.Payslips[idx] = s.mergePayslip(next.Payslips[idx], incoming)
	}

	for i := range next.Payslips {
		slip := SanitizePayslip(next.Payslips[i])
		if err := ValidatePayslip(slip); err != nil {
			return Payroll{}, Payroll{}, err
		}
		next.Payslips[i] = RecalcPayslip(slip)
	}
	next.TotalAmount = TotalNetPay(next.Payslips)

	saved, err := s.store.SavePayroll(ctx, tenantID, next)
	if err != nil {
		return Payroll{}, Payroll{}, storeErr("save payroll", err)
	}
	s.metrics.Add(metrics.PayslipRecalculated, uint64(len(saved.Payslips)))
	return current, saved, nil
}

// mergePayslip takes the editable parts of incoming and keeps the identity
// of the stored payslip. Items without an id get one.
func (s *Service) mergePayslip(stored, incoming Payslip) Payslip {
	out := stored.clone()
	if incoming.Earnings != nil {
		out.Earnings = s.withItemIDs(incoming.Earnings)
	}
	if incoming.Deductions != nil {
		out.Deductions = s.withItemIDs(incoming.Deductions)
	}
	if incoming.BaseSalary != 0 {
		out.BaseSalary = incoming.BaseSalary
	}
	return out
}

func (s *Service) withItemIDs(items []Item) []Item {
	out := cloneItems(items)
	for i := range out {
		if strings.TrimSpace(out[i].ID) == "" {
			out[i].ID = s.ids.ItemID()
		}
	}
	return out
}

// RecalculatePayroll re-runs every payslip's calculation and stores the result.
func (s *Service) RecalculatePayroll(ctx context.Context, tenantID, payrollID string) (Payroll, error) {
	_, updated, err := s.UpdatePayroll(ctx, tenantID, payrollID, Update{})
	return updated, err
}

func (s *Service) DeletePayroll(ctx context.Context, tenantID, payrollID string) error {
	if err := s.store.DeletePayroll(ctx, tenantID, payrollID); err != nil {
		return storeErr("delete payroll", err)
	}
	return nil
}

func (s *Service) AddPayslipItem(ctx context.Context, tenantID, payrollID, payslipID string, itemType ItemType) (Payroll, Item, error) {
	var added Item
	p, err := s.editPayslip(ctx, tenantID, payrollID, payslipID, func(slip Payslip) (Payslip, error) {
		updated, item, err := AddItem(slip, itemType, s.ids.ItemID())
		added = item
		return updated, err
	})
	return p, added, err
}

func (s *Service) RemovePayslipItem(ctx context.Context, tenantID, payrollID, payslipID, itemID string) (Payroll, error) {
	return s.editPayslip(ctx, tenantID, payrollID, payslipID, func(slip Payslip) (Payslip, error) {
		return RemoveItem(slip, itemID)
	})
}

func (s *Service) EditPayslipItem(ctx context.Context, tenantID, payrollID, payslipID, itemID string, field Field, value string) (Payroll, error) {
	return s.editPayslip(ctx, tenantID, payrollID, payslipID, func(slip Payslip) (Payslip, error) {
		return EditItem(slip, itemID, field, value)
	})
}

func (s *Service) editPayslip(ctx context.Context, tenantID, payrollID, payslipID string, mutate func(Payslip) (Payslip, error)) (Payroll, error) {
	current, err := s.store.GetPayroll(ctx, tenantID, payrollID)
	if err != nil {
		return Payroll{}, storeErr("get payroll", err)
	}

	draft := NewDraft(current)
	if err := draft.Apply(payslipID, mutate); err != nil {
		return Payroll{}, err
	}
	saved, err := draft.Commit(ctx, func(ctx context.Context, p Payroll) (Payroll, error) {
		return s.store.SavePayroll(ctx, tenantID, p)
	})
	if err != nil {
		return Payroll{}, storeErr("save payroll", err)
	}
	s.metrics.Add(metrics.PayslipRecalculated, 1)
	return saved, nil
}

// RenderPayslipPDF returns the payslip as a PDF. When an archive directory is
// configured a copy is stored there as well; archive failures are logged only.
func (s *Service) RenderPayslipPDF(ctx context.Context, tenantID, payrollID, payslipID string) (Export, error) {
	p, err := s.GetPayroll(ctx, tenantID, payrollID)
	if err != nil {
		return Export{}, err
	}
	idx := findPayslip(p.Payslips, payslipID)
	if idx < 0 {
		return Export{}, ErrPayslipNotFound
	}
	slip := p.Payslips[idx]

	data, err := renderPayslipPDF(s.info, p.Period, slip)
	if err != nil {
		return Export{}, err
	}
	if path, err := s.archivePayslip(p.ID, slip.ID, data); err != nil {
		slog.Warn("payslip archive failed", "payrollId", p.ID, "payslipId", slip.ID, "err", err)
	} else if path != "" {
		slog.Info("payslip archived", "payrollId", p.ID, "payslipId", slip.ID, "path", path)
	}

	return Export{
		Filename:    "payslip-" + slug(slip.StaffName) + "-" + slug(p.Period) + ".pdf",
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *Service) ExportRegister(ctx context.Context, tenantID, payrollID, format string) (Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportXLSX {
		return Export{}, ErrUnsupportedFormat
	}
	p, err := s.GetPayroll(ctx, tenantID, payrollID)
	if err != nil {
		return Export{}, err
	}
	return exportRegister(p, format, s.info.Currency)
}
