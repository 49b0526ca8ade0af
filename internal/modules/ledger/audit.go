package ledger

import (
	"context"
	"errors"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/modules/calendar"
	"clinicbook/internal/repository"

	"go.uber.org/zap"
)

// AuditReport lists every place where the calendar and the ledger disagree.
type AuditReport struct {
	CheckedAt          time.Time            `json:"checked_at"`
	Slots              int                  `json:"slots"`
	ActiveAppointments int                  `json:"active_appointments"`
	OrphanSlots        []domain.BookedSlot  `json:"orphan_slots"`
	MissingSlots       []domain.Appointment `json:"missing_slots"`
	DoubleBooked       []domain.Appointment `json:"double_booked"`
}

func (r *AuditReport) Consistent() bool {
	return len(r.OrphanSlots) == 0 && len(r.MissingSlots) == 0 && len(r.DoubleBooked) == 0
}

type RepairResult struct {
	Released   int `json:"released"`
	Restored   int `json:"restored"`
	Unresolved int `json:"unresolved"`
}

// Audit compares booked slots against non-cancelled appointments. A slot
// without an active appointment is an orphan; an active appointment without a
// slot is missing one; two active appointments on one slot are double booked.
func (s *Service) Audit(ctx context.Context) (*AuditReport, error) {
	slots, err := s.store.Slots.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.store.Appointments.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{
		CheckedAt:          s.now(),
		Slots:              len(slots),
		ActiveAppointments: len(active),
	}

	bySlot := make(map[string][]domain.Appointment, len(active))
	for _, a := range active {
		key := a.Slot().Key()
		bySlot[key] = append(bySlot[key], a)
	}
	held := make(map[string]bool, len(slots))
	for _, sl := range slots {
		key := sl.Slot().Key()
		held[key] = true
		if len(bySlot[key]) == 0 {
			report.OrphanSlots = append(report.OrphanSlots, sl)
		}
	}
	for key, appts := range bySlot {
		if !held[key] {
			report.MissingSlots = append(report.MissingSlots, appts...)
		}
		if len(appts) > 1 {
			report.DoubleBooked = append(report.DoubleBooked, appts...)
		}
	}

	s.metrics.ObserveDivergence("orphan_slot", len(report.OrphanSlots))
	s.metrics.ObserveDivergence("missing_slot", len(report.MissingSlots))
	s.metrics.ObserveDivergence("double_booked", len(report.DoubleBooked))

	if !report.Consistent() {
		s.logger.Error("calendar diverged from ledger",
			zap.Int("orphan_slots", len(report.OrphanSlots)),
			zap.Int("missing_slots", len(report.MissingSlots)),
			zap.Int("double_booked", len(report.DoubleBooked)),
		)
	}
	return report, nil
}

// Repair audits and then fixes what can be fixed safely: orphan slots are
// released and missing slots are re-reserved when still free. Every fix is
// re-checked under the doctor's lock. Double bookings are left for a human.
func (s *Service) Repair(ctx context.Context) (*AuditReport, *RepairResult, error) {
	report, err := s.Audit(ctx)
	if err != nil {
		return nil, nil, err
	}

	result := &RepairResult{Unresolved: len(report.DoubleBooked)}
	for _, sl := range report.OrphanSlots {
		released, err := s.releaseOrphan(ctx, sl.Slot())
		if err != nil {
			return report, result, err
		}
		if released {
			result.Released++
		}
	}
	for i := range report.MissingSlots {
		restored, err := s.restoreSlot(ctx, &report.MissingSlots[i])
		if err != nil {
			return report, result, err
		}
		if restored {
			result.Restored++
		} else {
			result.Unresolved++
		}
	}

	s.logger.Info("ledger repair finished",
		zap.Int("released", result.Released),
		zap.Int("restored", result.Restored),
		zap.Int("unresolved", result.Unresolved),
	)
	return report, result, nil
}

func (s *Service) releaseOrphan(ctx context.Context, slot domain.Slot) (bool, error) {
	unlock, err := s.calendar.Lock(ctx, slot.DoctorID)
	if err != nil {
		return false, err
	}
	defer unlock()

	var released bool
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		owners, err := tx.Appointments.FindActiveBySlot(ctx, slot)
		if err != nil {
			return err
		}
		if len(owners) > 0 {
			return nil
		}
		n, err := tx.Slots.Delete(ctx, slot, "")
		released = n > 0
		return err
	})
	if released {
		s.logger.Warn("released orphan slot", zap.String("slot", slot.Key()))
	}
	return released, err
}

func (s *Service) restoreSlot(ctx context.Context, appt *domain.Appointment) (bool, error) {
	unlock, err := s.calendar.Lock(ctx, appt.DoctorID)
	if err != nil {
		return false, err
	}
	defer unlock()

	var restored bool
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Appointments.GetForUpdate(ctx, appt.ID)
		if err != nil {
			return err
		}
		if current.IsCancelled() {
			return nil
		}
		err = s.calendar.In(tx.Slots).Reserve(ctx, current.Slot(), current.ID)
		if errors.Is(err, calendar.ErrSlotTaken) {
			owners, ferr := tx.Appointments.FindActiveBySlot(ctx, current.Slot())
			if ferr != nil {
				return ferr
			}
			// The slot came back between audit and repair.
			restored = len(owners) == 1
			return nil
		}
		if err != nil {
			return err
		}
		restored = true
		return nil
	})
	if restored {
		s.logger.Warn("restored missing slot", zap.String("appointment_id", appt.ID), zap.String("slot", appt.Slot().Key()))
	}
	return restored, err
}
