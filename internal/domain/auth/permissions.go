package auth

const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleTeacher    = "teacher"
)

const (
	PermStaffRead    = "staff.read"
	PermStaffWrite   = "staff.write"
	PermPayrollRead  = "payroll.read"
	PermPayrollWrite = "payroll.write"
	PermPayrollRun   = "payroll.run"
	PermAuditRead    = "audit.read"
)

var DefaultPermissions = []string{
	PermStaffRead,
	PermStaffWrite,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollRun,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermStaffRead,
		PermStaffWrite,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollRun,
		PermAuditRead,
	},
	RoleAccountant: {
		PermStaffRead,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollRun,
	},
	RoleTeacher: {
		PermStaffRead,
	},
}

// RoleHasPermission answers from the static catalogue, without a database.
func RoleHasPermission(role, permission string) bool {
	for _, candidate := range RolePermissions[role] {
		if candidate == permission {
			return true
		}
	}
	return false
}
