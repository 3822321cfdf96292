package staffhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolpay/internal/domain/audit"
	"schoolpay/internal/domain/auth"
	"schoolpay/internal/domain/staff"
	"schoolpay/internal/transport/http/api"
	"schoolpay/internal/transport/http/middleware"
	"schoolpay/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, tenantID string, filter staff.Filter, limit, offset int) ([]staff.Member, int, error)
	Get(ctx context.Context, tenantID, memberID string) (staff.Member, error)
	Create(ctx context.Context, tenantID string, member staff.Member) (staff.Member, error)
	Update(ctx context.Context, tenantID string, member staff.Member) (staff.Member, error)
	SetStatus(ctx context.Context, tenantID, memberID string, status staff.Status) error
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, recorder shared.AuditRecorder, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: recorder, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermStaffRead, h.Perms)
	write := middleware.RequirePermission(auth.PermStaffWrite, h.Perms)

	r.Route("/staff", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/{staffID}", h.handleGet)
		r.With(write).Put("/{staffID}", h.handleUpdate)
		r.With(write).Post("/{staffID}/status", h.handleSetStatus)
	})
}

type memberRequest struct {
	FirstName   string  `json:"firstName" validate:"required,max=100"`
	LastName    string  `json:"lastName" validate:"required,max=100"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Role        string  `json:"role" validate:"required,oneof=teacher admin support"`
	Status      string  `json:"status" validate:"omitempty,oneof=active inactive"`
	PaymentType string  `json:"paymentType" validate:"required,oneof=salary commission headcount"`
	PaymentRate float64 `json:"paymentRate" validate:"gte=0"`
}

func (p memberRequest) member() staff.Member {
	return staff.Member{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Role:        staff.Role(p.Role),
		Status:      staff.Status(p.Status),
		PaymentType: staff.PaymentType(p.PaymentType),
		PaymentRate: p.PaymentRate,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	q := r.URL.Query()
	filter := staff.Filter{
		Status:      staff.Status(q.Get("status")),
		PaymentType: staff.PaymentType(q.Get("paymentType")),
		Role:        staff.Role(q.Get("role")),
	}

	members, total, err := h.Service.List(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if members == nil {
		members = []staff.Member{}
	}
	shared.SetTotal(w, total)
	api.Success(w, members, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	member, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "staffID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, member, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload memberRequest
	if !shared.DecodeJSON(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.Create(r.Context(), user.TenantID, payload.member())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionStaffCreate, audit.EntityStaff, created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	staffID := chi.URLParam(r, "staffID")
	var payload memberRequest
	if !shared.DecodeJSON(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	before, err := h.Service.Get(r.Context(), user.TenantID, staffID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	member := payload.member()
	member.ID = staffID
	if member.Status == "" {
		member.Status = before.Status
	}
	updated, err := h.Service.Update(r.Context(), user.TenantID, member)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionStaffUpdate, audit.EntityStaff, staffID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	staffID := chi.URLParam(r, "staffID")
	var payload statusRequest
	if !shared.DecodeJSON(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.SetStatus(r.Context(), user.TenantID, staffID, staff.Status(payload.Status)); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionStaffStatus, audit.EntityStaff, staffID, nil, payload)
	api.Success(w, map[string]string{"id": staffID, "status": payload.Status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, staff.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "staff_not_found", err.Error(), reqID)
	case errors.Is(err, staff.ErrInvalidRole),
		errors.Is(err, staff.ErrInvalidStatus),
		errors.Is(err, staff.ErrInvalidPaymentType),
		errors.Is(err, staff.ErrNegativeRate),
		errors.Is(err, staff.ErrNameRequired):
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), reqID)
	default:
		slog.Error("staff request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "staff_failed", "staff request failed", reqID)
	}
}
