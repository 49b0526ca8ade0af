package domain

import "time"

type AppointmentEventType string

const (
	EventAppointmentBooked    AppointmentEventType = "appointment.booked"
	EventAppointmentCancelled AppointmentEventType = "appointment.cancelled"
	EventAppointmentCompleted AppointmentEventType = "appointment.completed"
	EventAppointmentPaid      AppointmentEventType = "appointment.paid"
)

// AppointmentEvent is pushed to the patient and doctor of an appointment.
type AppointmentEvent struct {
	Type          AppointmentEventType `json:"type"`
	AppointmentID string               `json:"appointment_id"`
	PatientID     string               `json:"patient_id"`
	DoctorID      string               `json:"doctor_id"`
	SlotDate      string               `json:"slot_date"`
	SlotTime      string               `json:"slot_time"`
	Status        AppointmentStatus    `json:"status"`
	Paid          bool                 `json:"paid"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewAppointmentEvent(t AppointmentEventType, a *Appointment, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		Type:          t,
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		SlotDate:      a.SlotDate,
		SlotTime:      a.SlotTime,
		Status:        a.Status,
		Paid:          a.Paid,
		OccurredAt:    at,
	}
}

// Recipients lists the subject ids that should receive the event.
func (e AppointmentEvent) Recipients() []string {
	if e.PatientID == e.DoctorID {
		return []string{e.PatientID}
	}
	return []string{e.PatientID, e.DoctorID}
}
