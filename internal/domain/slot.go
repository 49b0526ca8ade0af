package domain

import (
	"fmt"
	"time"
)

const (
	SlotDateLayout = "2006-01-02"
	SlotTimeLayout = "15:04"
)

// Slot is one (doctor, date, time) booking cell.
type Slot struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"slot_date"`
	Time     string `json:"slot_time"`
}

func (s Slot) Validate() error {
	if s.DoctorID == "" {
		return fmt.Errorf("%w: doctor id is required", ErrValidation)
	}
	if !ValidSlotDate(s.Date) {
		return fmt.Errorf("%w: slot date %q must be YYYY-MM-DD", ErrValidation, s.Date)
	}
	if !ValidSlotTime(s.Time) {
		return fmt.Errorf("%w: slot time %q must be HH:MM", ErrValidation, s.Time)
	}
	return nil
}

func (s Slot) Key() string {
	return s.DoctorID + "|" + s.Date + "|" + s.Time
}

func ValidSlotDate(v string) bool {
	if len(v) != len(SlotDateLayout) {
		return false
	}
	_, err := time.Parse(SlotDateLayout, v)
	return err == nil
}

func ValidSlotTime(v string) bool {
	if len(v) != len(SlotTimeLayout) {
		return false
	}
	_, err := time.Parse(SlotTimeLayout, v)
	return err == nil
}

// BookedSlot is the persisted form of a reserved slot. The unique index is what
// keeps a time value from appearing twice in a doctor's calendar.
type BookedSlot struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	DoctorID      string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_booked_slot,priority:1" json:"doctor_id"`
	SlotDate      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_booked_slot,priority:2" json:"slot_date"`
	SlotTime      string    `gorm:"type:varchar(5);not null;uniqueIndex:idx_booked_slot,priority:3" json:"slot_time"`
	AppointmentID string    `gorm:"type:varchar(36);index" json:"appointment_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (BookedSlot) TableName() string { return "booked_slots" }

func (b BookedSlot) Slot() Slot {
	return Slot{DoctorID: b.DoctorID, Date: b.SlotDate, Time: b.SlotTime}
}
