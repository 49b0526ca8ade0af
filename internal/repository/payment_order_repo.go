package repository

import (
	"context"
	"time"

	"clinicbook/internal/domain"

	"gorm.io/gorm"
)

type PaymentOrderRepository struct {
	db *gorm.DB
}

func NewPaymentOrderRepository(db *gorm.DB) *PaymentOrderRepository {
	return &PaymentOrderRepository{db: db}
}

func (r *PaymentOrderRepository) Create(ctx context.Context, p *domain.PaymentOrder) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentOrderRepository) GetByOrderRef(ctx context.Context, orderRef string) (*domain.PaymentOrder, error) {
	var p domain.PaymentOrder
	if err := r.db.WithContext(ctx).Where("order_ref = ?", orderRef).First(&p).Error; err != nil {
		return nil, notFound(err, domain.ErrPaymentOrderNotFound)
	}
	return &p, nil
}

func (r *PaymentOrderRepository) UpdateStatus(ctx context.Context, orderRef string, status domain.PaymentOrderStatus, providerStatus, reason string) error {
	return r.db.WithContext(ctx).
		Model(&domain.PaymentOrder{}).
		Where("order_ref = ? AND status <> ?", orderRef, domain.PaymentOrderPaid).
		Updates(map[string]interface{}{
			"status":          status,
			"provider_status": providerStatus,
			"failure_reason":  reason,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// MarkSettled records the order as paid. It reports false when the order was
// already settled.
func (r *PaymentOrderRepository) MarkSettled(ctx context.Context, orderRef, providerStatus string, settledAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.PaymentOrder{}).
		Where("order_ref = ? AND status <> ?", orderRef, domain.PaymentOrderPaid).
		Updates(map[string]interface{}{
			"status":          domain.PaymentOrderPaid,
			"provider_status": providerStatus,
			"failure_reason":  "",
			"settled_at":      settledAt,
			"updated_at":      settledAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListPendingOlderThan returns created orders last touched before the cutoff,
// oldest first.
func (r *PaymentOrderRepository) ListPendingOlderThan(ctx context.Context, before time.Time, limit int) ([]domain.PaymentOrder, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.PaymentOrderCreated, before).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.PaymentOrder
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentOrderRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]domain.PaymentOrder, error) {
	var out []domain.PaymentOrder
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
