package staff

import "context"

type StoreAPI interface {
	ListMembers(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Member, error)
	CountMembers(ctx context.Context, tenantID string, filter Filter) (int, error)
	GetMember(ctx context.Context, tenantID, memberID string) (Member, error)
	CreateMember(ctx context.Context, tenantID string, member Member) (Member, error)
	UpdateMember(ctx context.Context, tenantID string, member Member) (Member, error)
	SetStatus(ctx context.Context, tenantID, memberID string, status Status) error
}
