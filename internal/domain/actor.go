package domain

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Actor is the verified identity behind a request.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanManage reports whether the actor may cancel or view the appointment.
func (a Actor) CanManage(appt *Appointment) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RolePatient:
		return appt.PatientID == a.ID
	case RoleDoctor:
		return appt.DoctorID == a.ID
	}
	return false
}

// CanPay reports whether the actor may open a payment order for the appointment.
func (a Actor) CanPay(appt *Appointment) bool {
	return a.IsAdmin() || (a.Role == RolePatient && appt.PatientID == a.ID)
}

// CanEditDoctor reports whether the actor may change the doctor's availability.
func (a Actor) CanEditDoctor(doctorID string) bool {
	return a.IsAdmin() || (a.Role == RoleDoctor && a.ID == doctorID)
}
