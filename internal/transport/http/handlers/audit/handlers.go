package audithandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"schoolpay/internal/domain/audit"
	"schoolpay/internal/domain/auth"
	"schoolpay/internal/transport/http/api"
	"schoolpay/internal/transport/http/middleware"
	"schoolpay/internal/transport/http/shared"
)

const exportLimit = 10000

type Store interface {
	Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error)
	List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Store Store
	Perms middleware.PermissionStore
}

func NewHandler(store Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermAuditRead, h.Perms)
	r.With(read).Get("/audit", h.handleList)
	r.With(read).Get("/audit/export", h.handleExport)
}

func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (audit.Filter, bool) {
	q := r.URL.Query()
	since, err := shared.ParseDate(q.Get("since"))
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "since", Reason: "must be RFC3339 or YYYY-MM-DD"}})
		return audit.Filter{}, false
	}
	return audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		ActorUser:  q.Get("actorUserId"),
		Since:      since,
	}, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 500)
	includeDetails, _ := strconv.ParseBool(r.URL.Query().Get("includeDetails"))

	total, err := h.Store.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		slog.Error("count audit events failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	events, err := h.Store.List(r.Context(), user.TenantID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		slog.Error("list audit events failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	shared.SetTotal(w, total)
	api.Success(w, events, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	events, err := h.Store.List(r.Context(), user.TenantID, filter, false, exportLimit, 0)
	if err != nil {
		slog.Error("export audit events failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", reqID)
		return
	}
	data, err := audit.ExportCSV(events)
	if err != nil {
		slog.Error("encode audit csv failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", reqID)
		return
	}
	api.Attachment(w, "audit-"+time.Now().UTC().Format("20060102")+".csv", "text/csv", data)
}
