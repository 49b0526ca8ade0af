package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	AppointmentBooked    AppointmentStatus = "booked"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

type Appointment struct {
	ID          string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	PatientID   string            `gorm:"type:varchar(36);not null;index" json:"patient_id"`
	DoctorID    string            `gorm:"type:varchar(36);not null;index:idx_appointment_slot,priority:1" json:"doctor_id"`
	SlotDate    string            `gorm:"type:varchar(10);not null;index:idx_appointment_slot,priority:2" json:"slot_date"`
	SlotTime    string            `gorm:"type:varchar(5);not null;index:idx_appointment_slot,priority:3" json:"slot_time"`
	Amount      decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status      AppointmentStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Paid        bool              `gorm:"not null" json:"paid"`
	CancelledBy string            `gorm:"type:varchar(36)" json:"cancelled_by,omitempty"`

	Patient PatientSnapshot `gorm:"embedded;embeddedPrefix:patient_" json:"patient"`
	Doctor  DoctorSnapshot  `gorm:"embedded;embeddedPrefix:doctor_" json:"doctor"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// NewAppointment builds a booked, unpaid appointment priced at the doctor's fee.
func NewAppointment(id string, doctor *Doctor, patient *Patient, slot Slot, at time.Time) *Appointment {
	return &Appointment{
		ID:        id,
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		SlotDate:  slot.Date,
		SlotTime:  slot.Time,
		Amount:    doctor.Fee,
		Status:    AppointmentBooked,
		Patient:   patient.Snapshot(),
		Doctor:    doctor.Snapshot(),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func (a *Appointment) Slot() Slot {
	return Slot{DoctorID: a.DoctorID, Date: a.SlotDate, Time: a.SlotTime}
}

func (a *Appointment) IsCancelled() bool { return a.Status == AppointmentCancelled }

func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentCancelled || a.Status == AppointmentCompleted
}

// Cancel moves a booked appointment to cancelled.
func (a *Appointment) Cancel(by string, at time.Time) error {
	if a.Status != AppointmentBooked {
		return ErrInvalidState
	}
	a.Status = AppointmentCancelled
	a.CancelledBy = by
	a.CancelledAt = &at
	a.UpdatedAt = at
	return nil
}

// Complete moves a booked appointment to completed.
func (a *Appointment) Complete(at time.Time) error {
	if a.Status != AppointmentBooked {
		return ErrInvalidState
	}
	a.Status = AppointmentCompleted
	a.CompletedAt = &at
	a.UpdatedAt = at
	return nil
}

// MarkPaid sets the paid flag. It reports false when the appointment was
// already paid. Cancelled appointments are rejected; status never changes.
func (a *Appointment) MarkPaid(at time.Time) (bool, error) {
	if a.Status == AppointmentCancelled {
		return false, ErrInvalidState
	}
	if a.Paid {
		return false, nil
	}
	a.Paid = true
	a.PaidAt = &at
	a.UpdatedAt = at
	return true, nil
}
