package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"schoolpay/internal/app/server"
	"schoolpay/internal/domain/payroll"
	"schoolpay/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		DataEncryptionKey:  strings.Repeat("ab", 32),
		Environment:        "test",
		SchoolName:         "Test School",
		PayslipCurrency:    "MAD",
		SeedTenantName:     "Test School",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		RunMigrations:      true,
		RunSeed:            true,
		MigrationsDir:      "../../../../migrations",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		SnowflakeNode:      7,
	}
}

func TestPayrollJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	stamp := time.Now().UnixNano()
	createStaff(t, client, ts.URL, token, fmt.Sprintf(`{"firstName":"Amina","lastName":"J%d","role":"teacher","paymentType":"salary","paymentRate":12000}`, stamp))
	createStaff(t, client, ts.URL, token, fmt.Sprintf(`{"firstName":"Omar","lastName":"J%d","role":"support","paymentType":"commission","paymentRate":5}`, stamp))

	period := fmt.Sprintf("journey-%d", stamp)
	status, env := call(t, client, http.MethodPost, ts.URL+"/api/v1/payrolls", token, `{"period":"`+period+`"}`)
	if status != http.StatusCreated {
		t.Fatalf("generate failed: %d %+v", status, env.Error)
	}
	var run payroll.Payroll
	mustDecode(t, env.Data, &run)
	if len(run.Payslips) == 0 {
		t.Fatal("expected payslips for eligible staff")
	}
	for _, slip := range run.Payslips {
		if strings.HasPrefix(slip.StaffName, "Omar") {
			t.Fatalf("commission staff member should not be on the payroll: %+v", slip)
		}
	}

	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/payrolls", token, `{"period":"`+period+`"}`)
	if status != http.StatusConflict || env.Error == nil || env.Error.Message != payroll.ReasonAlreadyGenerated {
		t.Fatalf("expected already generated, got %d %+v", status, env.Error)
	}

	var slip payroll.Payslip
	for _, candidate := range run.Payslips {
		if candidate.BaseSalary == 12000 {
			slip = candidate
		}
	}
	if slip.ID == "" {
		t.Fatal("expected the new teacher on the payroll")
	}

	itemURL := fmt.Sprintf("%s/api/v1/payrolls/%s/payslips/%s/items/%s", ts.URL, run.ID, slip.ID, payroll.BonusItemID)
	status, env = call(t, client, http.MethodPatch, itemURL, token, `{"field":"amount","value":"1000"}`)
	if status != http.StatusOK {
		t.Fatalf("edit item failed: %d %+v", status, env.Error)
	}
	var updated payroll.Payroll
	mustDecode(t, env.Data, &updated)
	for _, s := range updated.Payslips {
		if s.ID != slip.ID {
			continue
		}
		if s.GrossSalary != 13000 || s.TotalDeductions != 1300 || s.NetPay != 11700 {
			t.Fatalf("unexpected totals after bonus edit: %+v", s)
		}
	}
	if updated.TotalAmount != payroll.TotalNetPay(updated.Payslips) {
		t.Fatalf("payroll total %v does not match payslips", updated.TotalAmount)
	}

	resp := download(t, client, fmt.Sprintf("%s/api/v1/payrolls/%s/export?format=csv", ts.URL, run.ID), token)
	if !strings.Contains(resp, "staff_id") || !strings.Contains(resp, slip.StaffID) {
		t.Fatalf("register export missing rows: %s", resp)
	}

	pdf := download(t, client, fmt.Sprintf("%s/api/v1/payrolls/%s/payslips/%s/pdf", ts.URL, run.ID, slip.ID), token)
	if !strings.HasPrefix(pdf, "%PDF") {
		t.Fatal("expected a PDF payslip")
	}

	status, env = call(t, client, http.MethodGet, ts.URL+"/api/v1/audit?entityId="+run.ID, token, "")
	if status != http.StatusOK {
		t.Fatalf("audit list failed: %d %+v", status, env.Error)
	}
	var events []map[string]any
	mustDecode(t, env.Data, &events)
	if len(events) < 2 {
		t.Fatalf("expected generate and edit audit events, got %d", len(events))
	}
}

func TestPayrollRequiresAuthentication(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), testConfig(dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	status, _ := call(t, ts.Client(), http.MethodPost, ts.URL+"/api/v1/payrolls", "", `{"period":"2026-09"}`)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	status, env := call(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	if status != http.StatusOK {
		t.Fatalf("login failed: %d %+v", status, env.Error)
	}
	var out struct {
		Token string `json:"token"`
	}
	mustDecode(t, env.Data, &out)
	return out.Token
}

func createStaff(t *testing.T, client *http.Client, baseURL, token, body string) string {
	t.Helper()
	status, env := call(t, client, http.MethodPost, baseURL+"/api/v1/staff", token, body)
	if status != http.StatusCreated {
		t.Fatalf("create staff failed: %d %+v", status, env.Error)
	}
	var out struct {
		ID string `json:"id"`
	}
	mustDecode(t, env.Data, &out)
	return out.ID
}

func call(t *testing.T, client *http.Client, method, url, token, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, env
}

func download(t *testing.T, client *http.Client, url, token string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download %s failed: %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func mustDecode(t *testing.T, data json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}
