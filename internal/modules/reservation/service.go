package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/modules/calendar"
	"clinicbook/internal/pkg/logging"
	"clinicbook/internal/pkg/metrics"
	"clinicbook/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const compensationTimeout = 5 * time.Second

type Service struct {
	store        *repository.Store
	appointments appointmentReader
	calendar     *calendar.Calendar
	events       EventPublisher
	metrics      *metrics.ReservationMetrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(
	store *repository.Store,
	cal *calendar.Calendar,
	events EventPublisher,
	m *metrics.ReservationMetrics,
	logger *zap.Logger,
) *Service {
	s := &Service{
		store:    store,
		calendar: cal,
		events:   events,
		metrics:  m,
		logger:   logging.OrNop(logger).Named("reservation"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	if store != nil {
		s.appointments = store.Appointments
	}
	return s
}

// BookAppointment reserves the slot and records a booked appointment in one
// transaction, under the doctor's lock.
func (s *Service) BookAppointment(ctx context.Context, in BookInput) (*domain.Appointment, error) {
	slot := domain.Slot{DoctorID: in.DoctorID, Date: in.SlotDate, Time: in.SlotTime}
	if in.PatientID == "" {
		return nil, fmt.Errorf("%w: patient id is required", domain.ErrValidation)
	}
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	unlock, err := s.calendar.Lock(ctx, slot.DoctorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	id := uuid.NewString()
	var appt *domain.Appointment
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		doctor, err := tx.Doctors.GetForUpdate(ctx, slot.DoctorID)
		if err != nil {
			return err
		}
		if !doctor.Available {
			return ErrDoctorUnavailable
		}

		if err := s.calendar.In(tx.Slots).Reserve(ctx, slot, id); err != nil {
			if errors.Is(err, calendar.ErrSlotTaken) {
				return ErrSlotUnavailable
			}
			return err
		}

		patient, err := tx.Patients.GetByID(ctx, in.PatientID)
		if err != nil {
			return err
		}

		appt = domain.NewAppointment(id, doctor, patient, slot, s.now())
		return tx.Appointments.Create(ctx, appt)
	})
	if err != nil {
		if isBusinessError(err) {
			s.metrics.ObserveBooking(bookingResult(err))
			return nil, err
		}

		s.logger.Warn("booking transaction failed",
			zap.String("appointment_id", id),
			zap.String("slot", slot.Key()),
			zap.Error(err),
		)
		if landed := s.releaseOrphan(ctx, slot, id); landed != nil {
			return s.booked(ctx, landed), nil
		}
		s.metrics.ObserveBooking("transient")
		return nil, fmt.Errorf("%w: book appointment: %v", ErrTransient, err)
	}

	return s.booked(ctx, appt), nil
}

func (s *Service) booked(ctx context.Context, appt *domain.Appointment) *domain.Appointment {
	s.metrics.ObserveBooking("ok")
	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("doctor_id", appt.DoctorID),
		zap.String("patient_id", appt.PatientID),
		zap.String("slot_date", appt.SlotDate),
		zap.String("slot_time", appt.SlotTime),
	)
	s.publish(ctx, domain.EventAppointmentBooked, appt)
	return appt
}

// releaseOrphan runs under the doctor lock after a booking transaction
// reported an error. If the appointment row is there the commit landed: the
// slot belongs to it and the appointment is returned. Otherwise the slot row
// is removed. One retry, then the divergence is logged for the ledger audit
// to repair.
func (s *Service) releaseOrphan(ctx context.Context, slot domain.Slot, appointmentID string) *domain.Appointment {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		var appt *domain.Appointment
		appt, err = s.appointments.GetByID(ctx, appointmentID)
		switch {
		case err == nil && !appt.IsCancelled():
			s.logger.Warn("booking committed despite error, slot kept",
				zap.String("appointment_id", appointmentID),
				zap.String("slot", slot.Key()),
			)
			return appt
		case err == nil, errors.Is(err, domain.ErrAppointmentNotFound):
			if err = s.calendar.Release(ctx, slot, appointmentID); err == nil {
				return nil
			}
		}
		s.logger.Warn("orphan slot release failed",
			zap.Int("attempt", attempt),
			zap.String("slot", slot.Key()),
			zap.Error(err),
		)
	}

	s.metrics.ObserveDivergence("orphan_slot", 1)
	s.logger.Error("calendar diverged from ledger",
		zap.String("kind", "orphan_slot"),
		zap.String("appointment_id", appointmentID),
		zap.String("slot", slot.Key()),
		zap.Error(err),
	)
	return nil
}

// CancelAppointment cancels a booked appointment and frees its slot. The
// patient, the doctor or an admin may cancel.
func (s *Service) CancelAppointment(ctx context.Context, actor domain.Actor, appointmentID string) (*domain.Appointment, error) {
	current, err := s.store.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		s.metrics.ObserveTransition("cancel", resultLabel(err))
		return nil, err
	}
	if !actor.CanManage(current) {
		s.metrics.ObserveTransition("cancel", "not_owner")
		return nil, domain.ErrNotOwner
	}
	if current.Status != domain.AppointmentBooked {
		s.metrics.ObserveTransition("cancel", "invalid_state")
		return nil, domain.ErrInvalidState
	}

	unlock, err := s.calendar.Lock(ctx, current.DoctorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var appt *domain.Appointment
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		a, err := tx.Appointments.GetForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if err := a.Cancel(actor.ID, s.now()); err != nil {
			return err
		}

		changed, err := tx.Appointments.SaveTransition(ctx, a, domain.AppointmentBooked)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrInvalidState
		}

		if err := s.calendar.In(tx.Slots).Release(ctx, a.Slot(), a.ID); err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		s.metrics.ObserveTransition("cancel", resultLabel(err))
		if !isBusinessError(err) {
			return nil, fmt.Errorf("%w: cancel appointment: %v", ErrTransient, err)
		}
		return nil, err
	}

	s.metrics.ObserveTransition("cancel", "ok")
	s.logger.Info("appointment cancelled",
		zap.String("appointment_id", appt.ID),
		zap.String("cancelled_by", actor.ID),
		zap.String("role", string(actor.Role)),
	)
	s.publish(ctx, domain.EventAppointmentCancelled, appt)
	return appt, nil
}

// CompleteAppointment marks a booked appointment completed. The slot stays
// taken.
func (s *Service) CompleteAppointment(ctx context.Context, doctorID, appointmentID string) (*domain.Appointment, error) {
	a, err := s.store.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		s.metrics.ObserveTransition("complete", resultLabel(err))
		return nil, err
	}
	if a.DoctorID != doctorID {
		s.metrics.ObserveTransition("complete", "not_owner")
		return nil, domain.ErrNotOwner
	}
	if err := a.Complete(s.now()); err != nil {
		s.metrics.ObserveTransition("complete", "invalid_state")
		return nil, err
	}

	changed, err := s.store.Appointments.SaveTransition(ctx, a, domain.AppointmentBooked)
	if err != nil {
		s.metrics.ObserveTransition("complete", "transient")
		return nil, fmt.Errorf("%w: complete appointment: %v", ErrTransient, err)
	}
	if !changed {
		s.metrics.ObserveTransition("complete", "invalid_state")
		return nil, domain.ErrInvalidState
	}

	s.metrics.ObserveTransition("complete", "ok")
	s.logger.Info("appointment completed", zap.String("appointment_id", a.ID), zap.String("doctor_id", doctorID))
	s.publish(ctx, domain.EventAppointmentCompleted, a)
	return a, nil
}

func (s *Service) publish(ctx context.Context, t domain.AppointmentEventType, a *domain.Appointment) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, domain.NewAppointmentEvent(t, a, s.now()))
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrDoctorNotFound,
		domain.ErrPatientNotFound,
		domain.ErrAppointmentNotFound,
		domain.ErrInvalidState,
		domain.ErrNotOwner,
		ErrDoctorUnavailable,
		ErrSlotUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrDoctorUnavailable):
		return "doctor_unavailable"
	default:
		return resultLabel(err)
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrDoctorNotFound),
		errors.Is(err, domain.ErrPatientNotFound),
		errors.Is(err, domain.ErrAppointmentNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrNotOwner):
		return "not_owner"
	default:
		return "transient"
	}
}
