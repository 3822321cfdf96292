package staff

import "errors"

var (
	ErrNotFound           = errors.New("staff member not found")
	ErrInvalidRole        = errors.New("invalid staff role")
	ErrInvalidStatus      = errors.New("invalid staff status")
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrNegativeRate       = errors.New("payment rate must not be negative")
	ErrNameRequired       = errors.New("first and last name are required")
)
