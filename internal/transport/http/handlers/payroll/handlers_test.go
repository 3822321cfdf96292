package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpay/internal/domain/audit"
	"schoolpay/internal/domain/auth"
	"schoolpay/internal/domain/payroll"
	"schoolpay/internal/transport/http/middleware"
)

type fakeService struct {
	result    payroll.GenerateResult
	err       error
	stored    payroll.Payroll
	editField payroll.Field
	editValue string
	format    string
	gets      int
}

func (f *fakeService) GeneratePayroll(_ context.Context, _, _, period string) (payroll.GenerateResult, error) {
	if period == "" {
		return payroll.GenerateResult{}, payroll.ErrPeriodRequired
	}
	return f.result, f.err
}

func (f *fakeService) GetPayroll(_ context.Context, _, id string) (payroll.Payroll, error) {
	f.gets++
	if f.err != nil {
		return payroll.Payroll{}, f.err
	}
	if id != f.stored.ID {
		return payroll.Payroll{}, payroll.ErrNotFound
	}
	return f.stored, nil
}

func (f *fakeService) ListPayrolls(context.Context, string, int, int) ([]payroll.Payroll, int, error) {
	return []payroll.Payroll{f.stored}, 1, f.err
}

func (f *fakeService) UpdatePayroll(_ context.Context, _, id string, update payroll.Update) (payroll.Payroll, payroll.Payroll, error) {
	if f.err != nil {
		return payroll.Payroll{}, payroll.Payroll{}, f.err
	}
	if id != f.stored.ID {
		return payroll.Payroll{}, payroll.Payroll{}, payroll.ErrNotFound
	}
	before := f.stored
	f.stored.Payslips = update.Payslips
	return before, f.stored, nil
}

func (f *fakeService) RecalculatePayroll(ctx context.Context, tenantID, id string) (payroll.Payroll, error) {
	return f.GetPayroll(ctx, tenantID, id)
}

func (f *fakeService) DeletePayroll(ctx context.Context, tenantID, id string) error {
	_, err := f.GetPayroll(ctx, tenantID, id)
	return err
}

func (f *fakeService) AddPayslipItem(_ context.Context, _, _, payslipID string, itemType payroll.ItemType) (payroll.Payroll, payroll.Item, error) {
	if payslipID != "slip-1" {
		return payroll.Payroll{}, payroll.Item{}, payroll.ErrPayslipNotFound
	}
	return f.stored, payroll.Item{ID: "item-9", Label: "New earning", Type: itemType, Category: payroll.CategoryCustom}, nil
}

func (f *fakeService) RemovePayslipItem(_ context.Context, _, _, _, itemID string) (payroll.Payroll, error) {
	if itemID != "bonus" {
		return payroll.Payroll{}, payroll.ErrItemNotFound
	}
	return f.stored, nil
}

func (f *fakeService) EditPayslipItem(_ context.Context, _, _, _, _ string, field payroll.Field, value string) (payroll.Payroll, error) {
	f.editField, f.editValue = field, value
	if field == payroll.FieldAmount && value == "abc" {
		return payroll.Payroll{}, payroll.ErrInvalidAmount
	}
	return f.stored, nil
}

func (f *fakeService) RenderPayslipPDF(context.Context, string, string, string) (payroll.Export, error) {
	return payroll.Export{Filename: "payslip.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}, nil
}

func (f *fakeService) ExportRegister(_ context.Context, _, _, format string) (payroll.Export, error) {
	f.format = format
	if format == "pdf" {
		return payroll.Export{}, payroll.ErrUnsupportedFormat
	}
	return payroll.Export{Filename: "payroll-register-2026-09.csv", ContentType: "text/csv", Data: []byte("staff_id\n")}, nil
}

type memoryKeys struct {
	hashes    map[string]string
	responses map[string]json.RawMessage
}

func newMemoryKeys() *memoryKeys {
	return &memoryKeys{hashes: map[string]string{}, responses: map[string]json.RawMessage{}}
}

func (m *memoryKeys) Check(_ context.Context, _, _, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	hash, ok := m.hashes[endpoint+key]
	if !ok {
		return nil, false, nil
	}
	if hash != requestHash {
		return nil, false, middleware.ErrIdempotencyConflict
	}
	return m.responses[endpoint+key], true, nil
}

func (m *memoryKeys) Save(_ context.Context, _, _, endpoint, key, requestHash string, response json.RawMessage) error {
	m.hashes[endpoint+key] = requestHash
	m.responses[endpoint+key] = response
	return nil
}

type countingService struct {
	*fakeService
	adds int
}

func (c *countingService) AddPayslipItem(ctx context.Context, tenantID, payrollID, payslipID string, itemType payroll.ItemType) (payroll.Payroll, payroll.Item, error) {
	c.adds++
	return c.fakeService.AddPayslipItem(ctx, tenantID, payrollID, payslipID, itemType)
}

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type auditLog struct {
	entries []audit.Entry
}

func (a *auditLog) Record(_ context.Context, e audit.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}

func samplePayroll() payroll.Payroll {
	return payroll.Payroll{
		ID:     "pay-1",
		Period: "2026-09",
		Payslips: []payroll.Payslip{{
			ID: "slip-1", StaffID: "s1", StaffName: "Amina Idrissi", Period: "2026-09",
			Earnings: []payroll.Item{{ID: "base-salary", Label: "Base salary", Amount: 10000, Type: payroll.ItemEarning, Category: payroll.CategoryBase}},
			BaseSalary: 10000, GrossSalary: 10000, TotalDeductions: 1000, NetPay: 9000,
		}},
		TotalAmount: 9000,
	}
}

func setup(t *testing.T, svc Service) (http.Handler, *auditLog) {
	t.Helper()
	log := &auditLog{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: auth.RoleAccountant})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(svc, log, allowAll{}, newMemoryKeys()).RegisterRoutes(r)
	return r, log
}

func do(router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestGenerateCreatesPayroll(t *testing.T) {
	p := samplePayroll()
	router, log := setup(t, &fakeService{result: payroll.GenerateResult{Success: true, Payroll: &p}})

	rec := do(router, http.MethodPost, "/payrolls", `{"period":"2026-09"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env := decode(t, rec)
	var view struct {
		ID      string          `json:"id"`
		Summary payroll.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "pay-1", view.ID)
	assert.Equal(t, 1, view.Summary.Headcount)
	assert.Equal(t, 9000.0, view.Summary.TotalNet)

	require.Len(t, log.entries, 1)
	assert.Equal(t, audit.ActionPayrollGenerate, log.entries[0].Action)
	assert.Equal(t, "u1", log.entries[0].ActorID)
}

func TestGenerateRejections(t *testing.T) {
	cases := []struct {
		name   string
		reason string
		status int
		code   string
	}{
		{name: "already generated", reason: payroll.ReasonAlreadyGenerated, status: http.StatusConflict, code: "payroll_exists"},
		{name: "no eligible staff", reason: payroll.ReasonNoEligibleStaff, status: http.StatusUnprocessableEntity, code: "no_eligible_staff"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, log := setup(t, &fakeService{result: payroll.GenerateResult{Reason: tc.reason}})
			rec := do(router, http.MethodPost, "/payrolls", `{"period":"2026-09"}`)
			require.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, tc.reason, env.Error.Message)
			assert.Empty(t, log.entries)
		})
	}
}

func TestGenerateValidationAndStorageErrors(t *testing.T) {
	router, _ := setup(t, &fakeService{})
	rec := do(router, http.MethodPost, "/payrolls", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"period"`)

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/payrolls", `{"period":"2026-09","extra":1}`).Code)

	router, _ = setup(t, &fakeService{err: payroll.ErrStore})
	rec = do(router, http.MethodPost, "/payrolls", `{"period":"2026-09"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "storage_unavailable", decode(t, rec).Error.Code)
}

func TestGetAndListPayrolls(t *testing.T) {
	router, _ := setup(t, &fakeService{stored: samplePayroll()})

	rec := do(router, http.MethodGet, "/payrolls/pay-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalAmount":9000`)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/payrolls/missing", "").Code)

	list := do(router, http.MethodGet, "/payrolls?limit=5", "")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Equal(t, "1", list.Header().Get("X-Total-Count"))
	var items []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, list).Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "2026-09", items[0]["period"])
	assert.EqualValues(t, 1, items[0]["headcount"])
}

func TestUpdatePayrollRecordsAudit(t *testing.T) {
	svc := &fakeService{stored: samplePayroll()}
	router, log := setup(t, svc)

	body := `{"payslips":[{"id":"slip-1","staffId":"s1","earnings":[{"id":"base-salary","label":"Base salary","amount":12000,"type":"earning","category":"base"}],"deductions":[]}]}`
	rec := do(router, http.MethodPatch, "/payrolls/pay-1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.stored.Payslips, 1)
	assert.Equal(t, 12000.0, svc.stored.Payslips[0].Earnings[0].Amount)
	require.Len(t, log.entries, 1)
	assert.Equal(t, audit.ActionPayrollUpdate, log.entries[0].Action)
	assert.Zero(t, svc.gets, "update must not re-read the payroll")
	before, ok := log.entries[0].Before.(payroll.Summary)
	require.True(t, ok)
	after, ok := log.entries[0].After.(payroll.Summary)
	require.True(t, ok)
	assert.Equal(t, 1, before.Headcount)
	assert.Equal(t, 10000.0, before.TotalGross)
	assert.Equal(t, 9000.0, before.TotalNet)
	assert.Equal(t, 1, after.Headcount)
}

func TestUpdatePayrollNotFound(t *testing.T) {
	svc := &fakeService{stored: samplePayroll()}
	router, log := setup(t, svc)

	rec := do(router, http.MethodPatch, "/payrolls/other", `{"payslips":[{"id":"slip-1"}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, log.entries)
}

func TestItemEndpoints(t *testing.T) {
	svc := &fakeService{stored: samplePayroll()}
	router, log := setup(t, svc)

	rec := do(router, http.MethodPost, "/payrolls/pay-1/payslips/slip-1/items", `{"type":"earning"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":"item-9"`)

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/payrolls/pay-1/payslips/slip-1/items", `{"type":"bonus"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPost, "/payrolls/pay-1/payslips/nope/items", `{"type":"deduction"}`).Code)

	rec = do(router, http.MethodPatch, "/payrolls/pay-1/payslips/slip-1/items/bonus", `{"field":"amount","value":250.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payroll.FieldAmount, svc.editField)
	assert.Equal(t, "250.5", svc.editValue)

	rec = do(router, http.MethodPatch, "/payrolls/pay-1/payslips/slip-1/items/bonus", `{"field":"label","value":"Exam bonus"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Exam bonus", svc.editValue)

	rec = do(router, http.MethodPatch, "/payrolls/pay-1/payslips/slip-1/items/bonus", `{"field":"amount","value":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPatch, "/payrolls/pay-1/payslips/slip-1/items/bonus", `{"field":"amount","value":{"x":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"value"`)

	assert.Equal(t, http.StatusOK, do(router, http.MethodDelete, "/payrolls/pay-1/payslips/slip-1/items/bonus", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodDelete, "/payrolls/pay-1/payslips/slip-1/items/other", "").Code)

	actions := make([]string, 0, len(log.entries))
	for _, e := range log.entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{audit.ActionPayslipItemAdd, audit.ActionPayslipItemEdit, audit.ActionPayslipItemEdit, audit.ActionPayslipItemRemove}, actions)
}

func TestDocumentsAreAttachments(t *testing.T) {
	svc := &fakeService{stored: samplePayroll()}
	router, _ := setup(t, svc)

	rec := do(router, http.MethodGet, "/payrolls/pay-1/payslips/slip-1/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip.pdf")

	rec = do(router, http.MethodGet, "/payrolls/pay-1/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", svc.format)
	assert.Equal(t, "staff_id\n", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/payrolls/pay-1/export?format=pdf", "").Code)
}

func TestRecalculateAndDelete(t *testing.T) {
	router, log := setup(t, &fakeService{stored: samplePayroll()})

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/payrolls/pay-1/recalculate", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodDelete, "/payrolls/pay-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodDelete, "/payrolls/other", "").Code)
	require.Len(t, log.entries, 2)
	assert.Equal(t, audit.ActionPayrollDelete, log.entries[1].Action)
}

func TestAddItemReplaysIdempotentRetry(t *testing.T) {
	svc := &countingService{fakeService: &fakeService{stored: samplePayroll()}}
	router, log := setup(t, svc)
	path := "/payrolls/pay-1/payslips/slip-1/items"

	first := do(router, http.MethodPost, path, `{"type":"earning"}`, middleware.IdempotencyHeader, "retry-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	retry := do(router, http.MethodPost, path, `{"type":"earning"}`, middleware.IdempotencyHeader, "retry-1")
	require.Equal(t, http.StatusCreated, retry.Code)

	assert.Equal(t, 1, svc.adds)
	assert.JSONEq(t, string(decode(t, first).Data), string(decode(t, retry).Data))
	assert.Len(t, log.entries, 1)

	conflict := do(router, http.MethodPost, path, `{"type":"deduction"}`, middleware.IdempotencyHeader, "retry-1")
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, "idempotency_conflict", decode(t, conflict).Error.Code)
	assert.Equal(t, 1, svc.adds)
}
