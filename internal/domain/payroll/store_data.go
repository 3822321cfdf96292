package payroll

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const payrollColumns = "id, tenant_id, period, payslips, total_amount, run_date, updated_at, COALESCE(created_by::text, '')"

func scanPayroll(row pgx.Row) (Payroll, error) {
	var p Payroll
	var payslipsJSON []byte
	if err := row.Scan(&p.ID, &p.TenantID, &p.Period, &payslipsJSON, &p.TotalAmount, &p.RunDate, &p.UpdatedAt, &p.CreatedBy); err != nil {
		return Payroll{}, err
	}
	if err := json.Unmarshal(payslipsJSON, &p.Payslips); err != nil {
		return Payroll{}, errors.Wrap(err, "decode payslips")
	}
	if p.Payslips == nil {
		p.Payslips = []Payslip{}
	}
	return p, nil
}

func (s *Store) PayrollExists(ctx context.Context, tenantID, period string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM payrolls WHERE tenant_id = $1 AND period = $2)", tenantID, period).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check payroll period")
	}
	return exists, nil
}

func (s *Store) InsertPayroll(ctx context.Context, tenantID string, p Payroll) (Payroll, error) {
	payslipsJSON, err := json.Marshal(p.Payslips)
	if err != nil {
		return Payroll{}, errors.Wrap(err, "encode payslips")
	}
	created, err := scanPayroll(s.DB.QueryRow(ctx, `
    INSERT INTO payrolls (tenant_id, period, payslips, total_amount, created_by)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+payrollColumns,
		tenantID, p.Period, payslipsJSON, p.TotalAmount, nullIfEmpty(p.CreatedBy)))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Payroll{}, ErrDuplicatePeriod
	}
	if err != nil {
		return Payroll{}, errors.Wrap(err, "insert payroll")
	}
	return created, nil
}

// Ids that are not UUIDs cannot exist and are reported as not found.
func (s *Store) GetPayroll(ctx context.Context, tenantID, payrollID string) (Payroll, error) {
	if uuid.Validate(payrollID) != nil {
		return Payroll{}, ErrNotFound
	}
	p, err := scanPayroll(s.DB.QueryRow(ctx, "SELECT "+payrollColumns+" FROM payrolls WHERE tenant_id = $1 AND id = $2", tenantID, payrollID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payroll{}, ErrNotFound
	}
	if err != nil {
		return Payroll{}, errors.Wrap(err, "get payroll")
	}
	return p, nil
}

func (s *Store) ListPayrolls(ctx context.Context, tenantID string, limit, offset int) ([]Payroll, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE tenant_id = $1
    ORDER BY run_date DESC, id
    LIMIT $2 OFFSET $3
  `, tenantID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list payrolls")
	}
	defer rows.Close()

	var out []Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan payroll")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CountPayrolls(ctx context.Context, tenantID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payrolls WHERE tenant_id = $1", tenantID).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "count payrolls")
	}
	return total, nil
}

// SavePayroll overwrites the payslip document and total; the last write wins.
func (s *Store) SavePayroll(ctx context.Context, tenantID string, p Payroll) (Payroll, error) {
	if uuid.Validate(p.ID) != nil {
		return Payroll{}, ErrNotFound
	}
	payslipsJSON, err := json.Marshal(p.Payslips)
	if err != nil {
		return Payroll{}, errors.Wrap(err, "encode payslips")
	}
	saved, err := scanPayroll(s.DB.QueryRow(ctx, `
    UPDATE payrolls
    SET payslips = $3, total_amount = $4, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+payrollColumns,
		tenantID, p.ID, payslipsJSON, p.TotalAmount))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payroll{}, ErrNotFound
	}
	if err != nil {
		return Payroll{}, errors.Wrap(err, "save payroll")
	}
	return saved, nil
}

func (s *Store) DeletePayroll(ctx context.Context, tenantID, payrollID string) error {
	if uuid.Validate(payrollID) != nil {
		return ErrNotFound
	}
	tag, err := s.DB.Exec(ctx, "DELETE FROM payrolls WHERE tenant_id = $1 AND id = $2", tenantID, payrollID)
	if err != nil {
		return errors.Wrap(err, "delete payroll")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
