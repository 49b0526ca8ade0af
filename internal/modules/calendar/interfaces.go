package calendar

import (
	"context"

	"clinicbook/internal/domain"
)

// SlotStore persists booked slots. repository.SlotRepository implements it.
type SlotStore interface {
	Exists(ctx context.Context, slot domain.Slot) (bool, error)
	Insert(ctx context.Context, slot domain.Slot, appointmentID string) error
	Delete(ctx context.Context, slot domain.Slot, appointmentID string) (int64, error)
	ListForDoctor(ctx context.Context, doctorID, date string) ([]domain.BookedSlot, error)
}
