package staff

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const memberColumns = "id, tenant_id, first_name, last_name, email, role, status, payment_type, payment_rate, created_at, updated_at"

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.TenantID, &m.FirstName, &m.LastName, &m.Email, &m.Role, &m.Status, &m.PaymentType, &m.PaymentRate, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func filterClause(tenantID string, filter Filter) (string, []any) {
	clauses := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentType != "" {
		args = append(args, filter.PaymentType)
		clauses = append(clauses, fmt.Sprintf("payment_type = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListMembers returns members ordered by creation; limit <= 0 means no limit.
func (s *Store) ListMembers(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Member, error) {
	where, args := filterClause(tenantID, filter)
	query := "SELECT " + memberColumns + " FROM staff_members" + where + " ORDER BY created_at, id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list staff members")
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan staff member")
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *Store) CountMembers(ctx context.Context, tenantID string, filter Filter) (int, error) {
	where, args := filterClause(tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM staff_members"+where, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "count staff members")
	}
	return total, nil
}

func (s *Store) GetMember(ctx context.Context, tenantID, memberID string) (Member, error) {
	if uuid.Validate(memberID) != nil {
		return Member{}, ErrNotFound
	}
	member, err := scanMember(s.DB.QueryRow(ctx, "SELECT "+memberColumns+" FROM staff_members WHERE tenant_id = $1 AND id = $2", tenantID, memberID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	if err != nil {
		return Member{}, errors.Wrap(err, "get staff member")
	}
	return member, nil
}

func (s *Store) CreateMember(ctx context.Context, tenantID string, member Member) (Member, error) {
	created, err := scanMember(s.DB.QueryRow(ctx, `
    INSERT INTO staff_members (tenant_id, first_name, last_name, email, role, status, payment_type, payment_rate)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+memberColumns,
		tenantID, member.FirstName, member.LastName, member.Email, member.Role, member.Status, member.PaymentType, member.PaymentRate))
	if err != nil {
		return Member{}, errors.Wrap(err, "create staff member")
	}
	return created, nil
}

func (s *Store) UpdateMember(ctx context.Context, tenantID string, member Member) (Member, error) {
	if uuid.Validate(member.ID) != nil {
		return Member{}, ErrNotFound
	}
	updated, err := scanMember(s.DB.QueryRow(ctx, `
    UPDATE staff_members
    SET first_name = $3, last_name = $4, email = $5, role = $6, status = $7, payment_type = $8, payment_rate = $9, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+memberColumns,
		tenantID, member.ID, member.FirstName, member.LastName, member.Email, member.Role, member.Status, member.PaymentType, member.PaymentRate))
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	if err != nil {
		return Member{}, errors.Wrap(err, "update staff member")
	}
	return updated, nil
}

func (s *Store) SetStatus(ctx context.Context, tenantID, memberID string, status Status) error {
	if uuid.Validate(memberID) != nil {
		return ErrNotFound
	}
	tag, err := s.DB.Exec(ctx, "UPDATE staff_members SET status = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2", tenantID, memberID, status)
	if err != nil {
		return errors.Wrap(err, "set staff status")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
