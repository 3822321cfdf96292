package staff

// EligibleForPayroll keeps the members a payroll run pays: active, paid a
// fixed salary, with a positive rate. Input order is preserved.
func EligibleForPayroll(members []Member) []Member {
	eligible := make([]Member, 0, len(members))
	for _, member := range members {
		if member.Status != StatusActive {
			continue
		}
		if member.PaymentType != PaymentSalary {
			continue
		}
		if member.PaymentRate <= 0 {
			continue
		}
		eligible = append(eligible, member)
	}
	return eligible
}
