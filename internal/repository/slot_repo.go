package repository

import (
	"context"
	"fmt"

	"clinicbook/internal/domain"

	"gorm.io/gorm"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Exists(ctx context.Context, slot domain.Slot) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.BookedSlot{}).
		Where("doctor_id = ? AND slot_date = ? AND slot_time = ?", slot.DoctorID, slot.Date, slot.Time).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// Insert stores the slot. A unique index hit is reported as ErrDuplicate.
func (r *SlotRepository) Insert(ctx context.Context, slot domain.Slot, appointmentID string) error {
	row := &domain.BookedSlot{
		DoctorID:      slot.DoctorID,
		SlotDate:      slot.Date,
		SlotTime:      slot.Time,
		AppointmentID: appointmentID,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, slot.Key())
		}
		return err
	}
	return nil
}

// Delete removes the slot row. When appointmentID is set only a row owned by
// that appointment is removed. It returns the number of rows deleted.
func (r *SlotRepository) Delete(ctx context.Context, slot domain.Slot, appointmentID string) (int64, error) {
	q := r.db.WithContext(ctx).
		Where("doctor_id = ? AND slot_date = ? AND slot_time = ?", slot.DoctorID, slot.Date, slot.Time)
	if appointmentID != "" {
		q = q.Where("appointment_id = ? OR appointment_id = ''", appointmentID)
	}
	res := q.Delete(&domain.BookedSlot{})
	return res.RowsAffected, res.Error
}

// ListForDoctor returns the doctor's booked slots, optionally for one date,
// ordered by date and time.
func (r *SlotRepository) ListForDoctor(ctx context.Context, doctorID, date string) ([]domain.BookedSlot, error) {
	q := r.db.WithContext(ctx).Where("doctor_id = ?", doctorID)
	if date != "" {
		q = q.Where("slot_date = ?", date)
	}
	var out []domain.BookedSlot
	if err := q.Order("slot_date ASC, slot_time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SlotRepository) ListAll(ctx context.Context) ([]domain.BookedSlot, error) {
	var out []domain.BookedSlot
	if err := r.db.WithContext(ctx).Order("doctor_id ASC, slot_date ASC, slot_time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
