package audithandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpay/internal/domain/audit"
	"schoolpay/internal/domain/auth"
	"schoolpay/internal/transport/http/middleware"
)

type fakeStore struct {
	events  []audit.Event
	filter  audit.Filter
	details bool
	limit   int
	err     error
}

func (f *fakeStore) Count(context.Context, string, audit.Filter) (int, error) {
	return len(f.events), f.err
}

func (f *fakeStore) List(_ context.Context, _ string, filter audit.Filter, includeDetails bool, limit, _ int) ([]audit.Event, error) {
	f.filter, f.details, f.limit = filter, includeDetails, limit
	return f.events, f.err
}

type permSet map[string]bool

func (p permSet) HasPermission(_ context.Context, _ string, permission string) (bool, error) {
	return p[permission], nil
}

func setup(store *fakeStore, perms permSet) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "r1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(store, perms).RegisterRoutes(r)
	return r
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestListAppliesFilters(t *testing.T) {
	store := &fakeStore{events: []audit.Event{{ID: "e1", Action: audit.ActionPayrollGenerate, EntityType: audit.EntityPayroll}}}
	router := setup(store, permSet{auth.PermAuditRead: true})

	rec := get(router, "/audit?action=payroll.generate&entityType=payroll&actorUserId=u2&since=2026-09-01&includeDetails=true&limit=10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, audit.ActionPayrollGenerate, store.filter.Action)
	assert.Equal(t, "u2", store.filter.ActorUser)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), store.filter.Since)
	assert.True(t, store.details)
	assert.Equal(t, 10, store.limit)
}

func TestListRejectsBadSince(t *testing.T) {
	router := setup(&fakeStore{}, permSet{auth.PermAuditRead: true})
	rec := get(router, "/audit?since=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"since"`)
}

func TestListRequiresPermission(t *testing.T) {
	router := setup(&fakeStore{}, permSet{})
	assert.Equal(t, http.StatusForbidden, get(router, "/audit").Code)
}

func TestListStoreFailure(t *testing.T) {
	router := setup(&fakeStore{err: errors.New("down")}, permSet{auth.PermAuditRead: true})
	assert.Equal(t, http.StatusInternalServerError, get(router, "/audit").Code)
}

func TestExportWritesCSV(t *testing.T) {
	store := &fakeStore{events: []audit.Event{{ID: "e1", ActorID: "u1", Action: audit.ActionStaffCreate, EntityType: audit.EntityStaff, EntityID: "s1"}}}
	router := setup(store, permSet{auth.PermAuditRead: true})

	rec := get(router, "/audit/export?entityType=staff_member")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id,"), rec.Body.String())
	assert.Contains(t, rec.Body.String(), "staff.create")
	assert.False(t, store.details)
	assert.Equal(t, exportLimit, store.limit)
}
