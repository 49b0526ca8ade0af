package availability

import "github.com/shopspring/decimal"

type SetAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// CalendarView is the public booking picture for one doctor.
type CalendarView struct {
	DoctorID    string              `json:"doctor_id"`
	Name        string              `json:"name"`
	Speciality  string              `json:"speciality"`
	Fee         decimal.Decimal     `json:"fee"`
	Available   bool                `json:"available"`
	SlotsBooked map[string][]string `json:"slots_booked"`
}
