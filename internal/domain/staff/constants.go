package staff

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleSupport Role = "support"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleAdmin, RoleSupport:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	}
	return false
}

// PaymentType decides how PaymentRate is read: a monthly amount for salary,
// a percentage for commission, a per-head amount for headcount.
type PaymentType string

const (
	PaymentSalary     PaymentType = "salary"
	PaymentCommission PaymentType = "commission"
	PaymentHeadcount  PaymentType = "headcount"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentSalary, PaymentCommission, PaymentHeadcount:
		return true
	}
	return false
}

var (
	Roles        = []string{string(RoleTeacher), string(RoleAdmin), string(RoleSupport)}
	Statuses     = []string{string(StatusActive), string(StatusInactive)}
	PaymentTypes = []string{string(PaymentSalary), string(PaymentCommission), string(PaymentHeadcount)}
)
