package availability

import (
	"context"
	"fmt"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/modules/calendar"
	"clinicbook/internal/pkg/logging"
	"clinicbook/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	store    *repository.Store
	calendar *calendar.Calendar
	logger   *zap.Logger
}

func NewService(store *repository.Store, cal *calendar.Calendar, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		calendar: cal,
		logger:   logging.OrNop(logger).Named("availability"),
	}
}

func (s *Service) IsAvailable(ctx context.Context, doctorID string) (bool, error) {
	d, err := s.store.Doctors.GetByID(ctx, doctorID)
	if err != nil {
		return false, err
	}
	return d.Available, nil
}

// SetAvailable switches the doctor's availability flag. Existing appointments
// are not touched.
func (s *Service) SetAvailable(ctx context.Context, actor domain.Actor, doctorID string, available bool) (*domain.Doctor, error) {
	return s.update(ctx, actor, doctorID, func(*domain.Doctor) bool { return available })
}

// Toggle flips the doctor's availability flag.
func (s *Service) Toggle(ctx context.Context, actor domain.Actor, doctorID string) (*domain.Doctor, error) {
	return s.update(ctx, actor, doctorID, func(d *domain.Doctor) bool { return !d.Available })
}

// update runs under the doctor's lock so that it is ordered against bookings.
func (s *Service) update(ctx context.Context, actor domain.Actor, doctorID string, next func(*domain.Doctor) bool) (*domain.Doctor, error) {
	if doctorID == "" {
		return nil, fmt.Errorf("%w: doctor id is required", domain.ErrValidation)
	}
	if !actor.CanEditDoctor(doctorID) {
		return nil, domain.ErrNotOwner
	}

	unlock, err := s.calendar.Lock(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var doctor *domain.Doctor
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		d, err := tx.Doctors.GetForUpdate(ctx, doctorID)
		if err != nil {
			return err
		}
		want := next(d)
		if want != d.Available {
			if err := tx.Doctors.SetAvailable(ctx, doctorID, want); err != nil {
				return err
			}
			d.Available = want
			d.UpdatedAt = time.Now().UTC()
		}
		doctor = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("doctor availability changed",
		zap.String("doctor_id", doctorID),
		zap.Bool("available", doctor.Available),
		zap.String("actor_id", actor.ID),
	)
	return doctor, nil
}

// Calendar returns the doctor's availability and booked slots, optionally for
// a single date.
func (s *Service) Calendar(ctx context.Context, doctorID, date string) (*CalendarView, error) {
	if date != "" && !domain.ValidSlotDate(date) {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrValidation, date)
	}
	d, err := s.store.Doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	booked, err := s.calendar.Booked(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return &CalendarView{
		DoctorID:    d.ID,
		Name:        d.Name,
		Speciality:  d.Speciality,
		Fee:         d.Fee,
		Available:   d.Available,
		SlotsBooked: booked,
	}, nil
}

func (s *Service) ListDoctors(ctx context.Context, onlyAvailable bool) ([]domain.Doctor, error) {
	return s.store.Doctors.List(ctx, onlyAvailable)
}
