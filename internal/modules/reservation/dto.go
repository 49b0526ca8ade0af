package reservation

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" binding:"required"`
	SlotDate string `json:"slot_date" binding:"required,slotdate"`
	SlotTime string `json:"slot_time" binding:"required,slottime"`
}

// BookInput is a validated booking request bound to a patient.
type BookInput struct {
	PatientID string
	DoctorID  string
	SlotDate  string
	SlotTime  string
}
