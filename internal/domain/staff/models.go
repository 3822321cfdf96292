package staff

import "time"

type Member struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"-"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	Status      Status      `json:"status"`
	PaymentType PaymentType `json:"paymentType"`
	PaymentRate float64     `json:"paymentRate"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (m Member) FullName() string {
	switch {
	case m.FirstName == "":
		return m.LastName
	case m.LastName == "":
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

type Filter struct {
	Status      Status
	PaymentType PaymentType
	Role        Role
}
