package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/pkg/metrics"
	"clinicbook/internal/repository"
)

// Calendar is the per-doctor record of booked slots. Reserve and Release must
// be called while holding Lock for the slot's doctor.
type Calendar struct {
	store   SlotStore
	locks   *KeyedMutex
	metrics *metrics.ReservationMetrics
}

func New(store SlotStore, m *metrics.ReservationMetrics) *Calendar {
	return &Calendar{store: store, locks: NewKeyedMutex(), metrics: m}
}

// In returns a calendar writing through store (usually a transaction) that
// shares this calendar's lock table.
func (c *Calendar) In(store SlotStore) *Calendar {
	return &Calendar{store: store, locks: c.locks, metrics: c.metrics}
}

// Lock acquires the doctor's exclusive scope.
func (c *Calendar) Lock(ctx context.Context, doctorID string) (func(), error) {
	start := time.Now()
	unlock, err := c.locks.Lock(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("lock doctor %s: %w", doctorID, err)
	}
	c.metrics.ObserveLockWait(time.Since(start))
	return unlock, nil
}

func (c *Calendar) IsFree(ctx context.Context, slot domain.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, err
	}
	taken, err := c.store.Exists(ctx, slot)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (c *Calendar) Reserve(ctx context.Context, slot domain.Slot, appointmentID string) error {
	if err := slot.Validate(); err != nil {
		return err
	}

	taken, err := c.store.Exists(ctx, slot)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}

	if err := c.store.Insert(ctx, slot, appointmentID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrSlotTaken
		}
		return err
	}
	return nil
}

// Release frees the slot held by appointmentID. A slot that is already free is
// not an error.
func (c *Calendar) Release(ctx context.Context, slot domain.Slot, appointmentID string) error {
	_, err := c.store.Delete(ctx, slot, appointmentID)
	return err
}

// Booked returns date -> sorted times for the doctor. date filters to a
// single day when set.
func (c *Calendar) Booked(ctx context.Context, doctorID, date string) (map[string][]string, error) {
	rows, err := c.store.ListForDoctor(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	for _, r := range rows {
		out[r.SlotDate] = append(out[r.SlotDate], r.SlotTime)
	}
	for d := range out {
		sort.Strings(out[d])
	}
	return out, nil
}
