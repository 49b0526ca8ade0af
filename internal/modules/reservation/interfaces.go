package reservation

import (
	"context"

	"clinicbook/internal/domain"
)

// EventPublisher receives appointment lifecycle events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.AppointmentEvent)
}

type appointmentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
}
