package payrollhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"schoolpay/internal/domain/audit"
	"schoolpay/internal/domain/auth"
	"schoolpay/internal/domain/payroll"
	"schoolpay/internal/transport/http/api"
	"schoolpay/internal/transport/http/middleware"
	"schoolpay/internal/transport/http/shared"
)

type Service interface {
	GeneratePayroll(ctx context.Context, tenantID, actorID, period string) (payroll.GenerateResult, error)
	GetPayroll(ctx context.Context, tenantID, payrollID string) (payroll.Payroll, error)
	ListPayrolls(ctx context.Context, tenantID string, limit, offset int) ([]payroll.Payroll, int, error)
	UpdatePayroll(ctx context.Context, tenantID, payrollID string, update payroll.Update) (payroll.Payroll, payroll.Payroll, error)
	RecalculatePayroll(ctx context.Context, tenantID, payrollID string) (payroll.Payroll, error)
	DeletePayroll(ctx context.Context, tenantID, payrollID string) error
	AddPayslipItem(ctx context.Context, tenantID, payrollID, payslipID string, itemType payroll.ItemType) (payroll.Payroll, payroll.Item, error)
	RemovePayslipItem(ctx context.Context, tenantID, payrollID, payslipID, itemID string) (payroll.Payroll, error)
	EditPayslipItem(ctx context.Context, tenantID, payrollID, payslipID, itemID string, field payroll.Field, value string) (payroll.Payroll, error)
	RenderPayslipPDF(ctx context.Context, tenantID, payrollID, payslipID string) (payroll.Export, error)
	ExportRegister(ctx context.Context, tenantID, payrollID, format string) (payroll.Export, error)
}

type IdempotencyStore interface {
	Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

type Handler struct {
	Service     Service
	Audit       shared.AuditRecorder
	Perms       middleware.PermissionStore
	Idempotency IdempotencyStore
}

func NewHandler(service Service, recorder shared.AuditRecorder, perms middleware.PermissionStore, idempotency IdempotencyStore) *Handler {
	return &Handler{Service: service, Audit: recorder, Perms: perms, Idempotency: idempotency}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	write := middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)
	run := middleware.RequirePermission(auth.PermPayrollRun, h.Perms)

	r.Route("/payrolls", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(run).Post("/", h.handleGenerate)
		r.With(read).Get("/{payrollID}", h.handleGet)
		r.With(write).Patch("/{payrollID}", h.handleUpdate)
		r.With(run).Delete("/{payrollID}", h.handleDelete)
		r.With(write).Post("/{payrollID}/recalculate", h.handleRecalculate)
		r.With(read).Get("/{payrollID}/export", h.handleExport)
		r.With(read).Get("/{payrollID}/payslips/{payslipID}/pdf", h.handlePayslipPDF)
		r.With(write).Post("/{payrollID}/payslips/{payslipID}/items", h.handleAddItem)
		r.With(write).Patch("/{payrollID}/payslips/{payslipID}/items/{itemID}", h.handleEditItem)
		r.With(write).Delete("/{payrollID}/payslips/{payslipID}/items/{itemID}", h.handleRemoveItem)
	})
}

type generateRequest struct {
	Period string `json:"period" validate:"required,max=64"`
}

type updateRequest struct {
	Payslips []payroll.Payslip `json:"payslips" validate:"required"`
}

type addItemRequest struct {
	Type string `json:"type" validate:"required,oneof=earning deduction"`
}

type editItemRequest struct {
	Field string          `json:"field" validate:"required,oneof=label amount"`
	Value json.RawMessage `json:"value" validate:"required"`
}

// rawValue accepts a JSON string or number. Amounts typed into a form
// arrive as strings and are parsed by the domain.
func (p editItemRequest) rawValue() (string, bool) {
	var s string
	if err := json.Unmarshal(p.Value, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(p.Value, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

type listItem struct {
	ID        string    `json:"id"`
	RunDate   time.Time `json:"runDate"`
	UpdatedAt time.Time `json:"updatedAt"`
	payroll.Summary
}

type payrollView struct {
	payroll.Payroll
	Summary payroll.Summary `json:"summary"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 20, 100)

	payrolls, total, err := h.Service.ListPayrolls(r.Context(), user.TenantID, page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]listItem, 0, len(payrolls))
	for _, p := range payrolls {
		out = append(out, listItem{ID: p.ID, RunDate: p.RunDate, UpdatedAt: p.UpdatedAt, Summary: payroll.Summarize(p)})
	}
	shared.SetTotal(w, total)
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	var payload generateRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	result, err := h.Service.GeneratePayroll(r.Context(), user.TenantID, user.UserID, payload.Period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !result.Success {
		status, code := http.StatusConflict, "payroll_exists"
		if result.Reason == payroll.ReasonNoEligibleStaff {
			status, code = http.StatusUnprocessableEntity, "no_eligible_staff"
		}
		api.FailWithDetails(w, status, code, result.Reason, map[string]string{"period": strings.TrimSpace(payload.Period)}, reqID)
		return
	}

	p := *result.Payroll
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollGenerate, audit.EntityPayroll, p.ID, nil, payroll.Summarize(p))
	api.Created(w, payrollView{Payroll: p, Summary: payroll.Summarize(p)}, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p, err := h.Service.GetPayroll(r.Context(), user.TenantID, chi.URLParam(r, "payrollID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, payrollView{Payroll: p, Summary: payroll.Summarize(p)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payrollID := chi.URLParam(r, "payrollID")
	var payload updateRequest
	if !shared.DecodeJSON(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	before, updated, err := h.Service.UpdatePayroll(r.Context(), user.TenantID, payrollID, payroll.Update{Payslips: payload.Payslips})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollUpdate, audit.EntityPayroll, payrollID, payroll.Summarize(before), payroll.Summarize(updated))
	api.Success(w, payrollView{Payroll: updated, Summary: payroll.Summarize(updated)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payrollID := chi.URLParam(r, "payrollID")

	updated, err := h.Service.RecalculatePayroll(r.Context(), user.TenantID, payrollID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollRecalculate, audit.EntityPayroll, payrollID, nil, payroll.Summarize(updated))
	api.Success(w, payrollView{Payroll: updated, Summary: payroll.Summarize(updated)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payrollID := chi.URLParam(r, "payrollID")

	if err := h.Service.DeletePayroll(r.Context(), user.TenantID, payrollID); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollDelete, audit.EntityPayroll, payrollID, nil, nil)
	api.Success(w, map[string]string{"id": payrollID}, middleware.GetRequestID(r.Context()))
}

// handleAddItem honours Idempotency-Key so a retried request does not add a
// second item.
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	payrollID, payslipID := chi.URLParam(r, "payrollID"), chi.URLParam(r, "payslipID")
	var payload addItemRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	key := strings.TrimSpace(r.Header.Get(middleware.IdempotencyHeader))
	requestHash := middleware.RequestHash(payrollID, payslipID, payload.Type)
	if key != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.TenantID, user.UserID, audit.ActionPayslipItemAdd, key, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), reqID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Created(w, stored, reqID)
			return
		}
	}

	updated, item, err := h.Service.AddPayslipItem(r.Context(), user.TenantID, payrollID, payslipID, payroll.ItemType(payload.Type))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayslipItemAdd, audit.EntityPayroll, payrollID, nil, map[string]any{"payslipId": payslipID, "item": item})

	response := map[string]any{"item": item, "payroll": payrollView{Payroll: updated, Summary: payroll.Summarize(updated)}}
	if key != "" && h.Idempotency != nil {
		if encoded, err := json.Marshal(response); err != nil {
			slog.Warn("idempotency response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.TenantID, user.UserID, audit.ActionPayslipItemAdd, key, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Created(w, response, reqID)
}

func (h *Handler) handleEditItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	payrollID, payslipID, itemID := chi.URLParam(r, "payrollID"), chi.URLParam(r, "payslipID"), chi.URLParam(r, "itemID")
	var payload editItemRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	value, ok := payload.rawValue()
	if !ok {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "value", Reason: "must be a string or a number"}})
		return
	}

	updated, err := h.Service.EditPayslipItem(r.Context(), user.TenantID, payrollID, payslipID, itemID, payroll.Field(payload.Field), value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayslipItemEdit, audit.EntityPayroll, payrollID, nil,
		map[string]string{"payslipId": payslipID, "itemId": itemID, "field": payload.Field, "value": value})
	api.Success(w, payrollView{Payroll: updated, Summary: payroll.Summarize(updated)}, reqID)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payrollID, payslipID, itemID := chi.URLParam(r, "payrollID"), chi.URLParam(r, "payslipID"), chi.URLParam(r, "itemID")

	updated, err := h.Service.RemovePayslipItem(r.Context(), user.TenantID, payrollID, payslipID, itemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayslipItemRemove, audit.EntityPayroll, payrollID, map[string]string{"payslipId": payslipID, "itemId": itemID}, nil)
	api.Success(w, payrollView{Payroll: updated, Summary: payroll.Summarize(updated)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslipPDF(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	doc, err := h.Service.RenderPayslipPDF(r.Context(), user.TenantID, chi.URLParam(r, "payrollID"), chi.URLParam(r, "payslipID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	api.Attachment(w, doc.Filename, doc.ContentType, doc.Data)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	doc, err := h.Service.ExportRegister(r.Context(), user.TenantID, chi.URLParam(r, "payrollID"), r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Attachment(w, doc.Filename, doc.ContentType, doc.Data)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "payroll_not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrPayslipNotFound):
		api.Fail(w, http.StatusNotFound, "payslip_not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrItemNotFound):
		api.Fail(w, http.StatusNotFound, "item_not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrPeriodRequired),
		errors.Is(err, payroll.ErrInvalidAmount),
		errors.Is(err, payroll.ErrUnknownField),
		errors.Is(err, payroll.ErrInvalidItemType),
		errors.Is(err, payroll.ErrInvalidCategory),
		errors.Is(err, payroll.ErrLabelRequired),
		errors.Is(err, payroll.ErrDuplicateItemID),
		errors.Is(err, payroll.ErrUnsupportedFormat):
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), reqID)
	case errors.Is(err, payroll.ErrStore):
		api.Fail(w, http.StatusServiceUnavailable, "storage_unavailable", "payroll storage is unavailable", reqID)
	default:
		slog.Error("payroll request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "payroll request failed", reqID)
	}
}
