package domain

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrPaymentOrderNotFound = errors.New("payment order not found")
	ErrInvalidState         = errors.New("invalid appointment state transition")
	ErrNotOwner             = errors.New("actor does not own this resource")
)
