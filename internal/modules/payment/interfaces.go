package payment

import (
	"context"
	"time"

	"clinicbook/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.AppointmentEvent)
}

type pendingOrders interface {
	ListPendingOlderThan(ctx context.Context, before time.Time, limit int) ([]domain.PaymentOrder, error)
	UpdateStatus(ctx context.Context, orderRef string, status domain.PaymentOrderStatus, providerStatus, reason string) error
}

type confirmer interface {
	ConfirmPayment(ctx context.Context, orderRef string) (*Confirmation, error)
}
