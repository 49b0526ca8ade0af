package reservation

import "errors"

var (
	ErrSlotUnavailable   = errors.New("slot not available")
	ErrDoctorUnavailable = errors.New("doctor not available")
	ErrTransient         = errors.New("temporary storage failure")
)
