package ledger

import (
	"context"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/modules/calendar"
	"clinicbook/internal/pkg/logging"
	"clinicbook/internal/pkg/metrics"
	"clinicbook/internal/repository"

	"go.uber.org/zap"
)

const defaultPageSize = 50

// Service is the read side of the appointment ledger plus the
// calendar/ledger consistency audit.
type Service struct {
	store    *repository.Store
	calendar *calendar.Calendar
	metrics  *metrics.ReservationMetrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store *repository.Store, cal *calendar.Calendar, m *metrics.ReservationMetrics, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		calendar: cal,
		metrics:  m,
		logger:   logging.OrNop(logger).Named("ledger"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.store.Appointments.GetByID(ctx, id)
}

// GetFor returns the appointment if the actor is allowed to see it.
func (s *Service) GetFor(ctx context.Context, actor domain.Actor, id string) (*domain.Appointment, error) {
	a, err := s.store.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(a) {
		return nil, domain.ErrNotOwner
	}
	return a, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID string) ([]domain.Appointment, error) {
	return s.store.Appointments.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]domain.Appointment, error) {
	return s.store.Appointments.ListByPatient(ctx, patientID)
}

// ListMine lists the actor's own appointments, newest first.
func (s *Service) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Appointment, error) {
	switch actor.Role {
	case domain.RoleDoctor:
		return s.ListForDoctor(ctx, actor.ID)
	case domain.RolePatient:
		return s.ListForPatient(ctx, actor.ID)
	default:
		return s.ListAll(ctx, defaultPageSize, 0)
	}
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]domain.Appointment, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Appointments.ListAll(ctx, limit, offset)
}
