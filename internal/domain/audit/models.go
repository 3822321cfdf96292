package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionPayrollGenerate    = "payroll.generate"
	ActionPayrollUpdate      = "payroll.update"
	ActionPayrollRecalculate = "payroll.recalculate"
	ActionPayrollDelete      = "payroll.delete"
	ActionPayslipItemAdd     = "payroll.item.add"
	ActionPayslipItemEdit    = "payroll.item.edit"
	ActionPayslipItemRemove  = "payroll.item.remove"
	ActionStaffCreate        = "staff.create"
	ActionStaffUpdate        = "staff.update"
	ActionStaffStatus        = "staff.status"

	EntityPayroll = "payroll"
	EntityStaff   = "staff_member"
)

// Entry is one change to be written to the audit trail. Before and After
// are marshalled to JSON; nil values are stored as NULL.
type Entry struct {
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

type Event struct {
	ID         string          `json:"id" csv:"id"`
	ActorID    string          `json:"actorId" csv:"actor_user_id"`
	Action     string          `json:"action" csv:"action"`
	EntityType string          `json:"entityType" csv:"entity_type"`
	EntityID   string          `json:"entityId" csv:"entity_id"`
	RequestID  string          `json:"requestId" csv:"request_id"`
	IP         string          `json:"ip" csv:"ip"`
	CreatedAt  time.Time       `json:"createdAt" csv:"created_at"`
	Before     json.RawMessage `json:"before,omitempty" csv:"-"`
	After      json.RawMessage `json:"after,omitempty" csv:"-"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
	Since      time.Time
}
