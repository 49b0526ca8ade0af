package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db            *gorm.DB
	Doctors       *DoctorRepository
	Patients      *PatientRepository
	Slots         *SlotRepository
	Appointments  *AppointmentRepository
	PaymentOrders *PaymentOrderRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Doctors:       NewDoctorRepository(db),
		Patients:      NewPatientRepository(db),
		Slots:         NewSlotRepository(db),
		Appointments:  NewAppointmentRepository(db),
		PaymentOrders: NewPaymentOrderRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn against a Store bound to a single transaction. Code
// inside fn must only use tx; the outer store may be waiting on the same
// connection.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
