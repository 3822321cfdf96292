package audit

import (
	"strings"
	"testing"
	"time"
)

func TestBaseQueryAddsFiltersInOrder(t *testing.T) {
	query, args := baseQuery("SELECT COUNT(1)", "t1", Filter{Action: ActionPayrollUpdate, EntityID: "p1"})
	want := "SELECT COUNT(1) FROM audit_events WHERE tenant_id = $1 AND action = $2 AND entity_id = $3"
	if query != want {
		t.Fatalf("unexpected query:\n%s\nwant:\n%s", query, want)
	}
	if len(args) != 3 || args[1] != ActionPayrollUpdate || args[2] != "p1" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestExportCSV(t *testing.T) {
	events := []Event{{
		ID:         "e1",
		ActorID:    "u1",
		Action:     ActionPayrollGenerate,
		EntityType: EntityPayroll,
		EntityID:   "p1",
		CreatedAt:  time.Date(2024, 7, 31, 9, 0, 0, 0, time.UTC),
		After:      []byte(`{"secret":true}`),
	}}

	data, err := ExportCSV(events)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", data)
	}
	if lines[0] != "id,actor_user_id,action,entity_type,entity_id,request_id,ip,created_at" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "payroll.generate") || strings.Contains(lines[1], "secret") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
