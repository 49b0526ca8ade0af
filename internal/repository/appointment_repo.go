package repository

import (
	"context"
	"time"

	"clinicbook/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err, domain.ErrAppointmentNotFound)
	}
	return &a, nil
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, domain.ErrAppointmentNotFound)
	}
	return &a, nil
}

// SaveTransition persists a status change made on a, but only if the stored
// status is still from. It reports whether a row was updated.
func (r *AppointmentRepository) SaveTransition(ctx context.Context, a *domain.Appointment, from domain.AppointmentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND status = ?", a.ID, from).
		Updates(map[string]interface{}{
			"status":       a.Status,
			"cancelled_by": a.CancelledBy,
			"cancelled_at": a.CancelledAt,
			"completed_at": a.CompletedAt,
			"updated_at":   a.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkPaid flips paid false -> true for a non-cancelled appointment. It
// reports false when nothing changed.
func (r *AppointmentRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND paid = ? AND status <> ?", id, false, domain.AppointmentCancelled).
		Updates(map[string]interface{}{
			"paid":       true,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID string) ([]domain.Appointment, error) {
	return r.list(r.db.WithContext(ctx).Where("doctor_id = ?", doctorID), 0, 0)
}

func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID string) ([]domain.Appointment, error) {
	return r.list(r.db.WithContext(ctx).Where("patient_id = ?", patientID), 0, 0)
}

func (r *AppointmentRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Appointment, error) {
	return r.list(r.db.WithContext(ctx), limit, offset)
}

// ListActive returns every appointment that should hold a calendar slot.
func (r *AppointmentRepository) ListActive(ctx context.Context) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("status <> ?", domain.AppointmentCancelled).
		Order("doctor_id ASC, slot_date ASC, slot_time ASC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AppointmentRepository) FindActiveBySlot(ctx context.Context, slot domain.Slot) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND slot_date = ? AND slot_time = ? AND status <> ?",
			slot.DoctorID, slot.Date, slot.Time, domain.AppointmentCancelled).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AppointmentRepository) list(q *gorm.DB, limit, offset int) ([]domain.Appointment, error) {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var out []domain.Appointment
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
