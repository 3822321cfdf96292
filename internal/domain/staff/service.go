package staff

import (
	"context"
	"strings"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Member, int, error) {
	total, err := s.store.CountMembers(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	members, err := s.store.ListMembers(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (s *Service) Get(ctx context.Context, tenantID, memberID string) (Member, error) {
	return s.store.GetMember(ctx, tenantID, memberID)
}

func (s *Service) Create(ctx context.Context, tenantID string, member Member) (Member, error) {
	if member.Status == "" {
		member.Status = StatusActive
	}
	member = normalize(member)
	if err := validate(member); err != nil {
		return Member{}, err
	}
	return s.store.CreateMember(ctx, tenantID, member)
}

func (s *Service) Update(ctx context.Context, tenantID string, member Member) (Member, error) {
	member = normalize(member)
	if err := validate(member); err != nil {
		return Member{}, err
	}
	return s.store.UpdateMember(ctx, tenantID, member)
}

// SetStatus is the only way staff leave the directory; records are never removed.
func (s *Service) SetStatus(ctx context.Context, tenantID, memberID string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.store.SetStatus(ctx, tenantID, memberID, status)
}

// Roster returns every member of the tenant that a payroll run must consider.
func (s *Service) Roster(ctx context.Context, tenantID string) ([]Member, error) {
	return s.store.ListMembers(ctx, tenantID, Filter{Status: StatusActive, PaymentType: PaymentSalary}, 0, 0)
}

func normalize(member Member) Member {
	member.FirstName = strings.TrimSpace(member.FirstName)
	member.LastName = strings.TrimSpace(member.LastName)
	member.Email = strings.ToLower(strings.TrimSpace(member.Email))
	return member
}

func validate(member Member) error {
	if member.FirstName == "" || member.LastName == "" {
		return ErrNameRequired
	}
	if !member.Role.Valid() {
		return ErrInvalidRole
	}
	if !member.Status.Valid() {
		return ErrInvalidStatus
	}
	if !member.PaymentType.Valid() {
		return ErrInvalidPaymentType
	}
	if member.PaymentRate < 0 {
		return ErrNegativeRate
	}
	return nil
}
