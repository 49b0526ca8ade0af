package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotRepository_InsertDuplicate(t *testing.T) {
	db := testdb.New(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()
	slot := domain.Slot{DoctorID: "d1", Date: "2025-03-10", Time: "10:00"}

	require.NoError(t, repo.Insert(ctx, slot, "a1"))

	err := repo.Insert(ctx, slot, "a2")
	assert.ErrorIs(t, err, ErrDuplicate)

	exists, err := repo.Exists(ctx, slot)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSlotRepository_DeleteOnlyOwnRow(t *testing.T) {
	db := testdb.New(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()
	slot := domain.Slot{DoctorID: "d1", Date: "2025-03-10", Time: "10:00"}

	require.NoError(t, repo.Insert(ctx, slot, "a1"))

	n, err := repo.Delete(ctx, slot, "someone-else")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Delete(ctx, slot, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(ctx, slot, "a1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSlotRepository_ListForDoctor(t *testing.T) {
	db := testdb.New(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, domain.Slot{DoctorID: "d1", Date: "2025-03-11", Time: "09:00"}, "a1"))
	require.NoError(t, repo.Insert(ctx, domain.Slot{DoctorID: "d1", Date: "2025-03-10", Time: "11:00"}, "a2"))
	require.NoError(t, repo.Insert(ctx, domain.Slot{DoctorID: "d1", Date: "2025-03-10", Time: "10:00"}, "a3"))
	require.NoError(t, repo.Insert(ctx, domain.Slot{DoctorID: "d2", Date: "2025-03-10", Time: "10:00"}, "a4"))

	all, err := repo.ListForDoctor(ctx, "d1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "10:00", all[0].SlotTime)
	assert.Equal(t, "2025-03-11", all[2].SlotDate)

	day, err := repo.ListForDoctor(ctx, "d1", "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, day, 2)
}

func TestDoctorRepository_SetAvailable(t *testing.T) {
	db := testdb.New(t)
	repo := NewDoctorRepository(db)
	ctx := context.Background()
	d := testdb.Doctor(t, db, "Dr. Rao", 500, true)

	require.NoError(t, repo.SetAvailable(ctx, d.ID, false))
	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	assert.ErrorIs(t, repo.SetAvailable(ctx, "missing", true), domain.ErrDoctorNotFound)

	_, err = repo.GetForUpdate(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDoctorNotFound)
}

func TestAppointmentRepository_ConditionalUpdates(t *testing.T) {
	db := testdb.New(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()
	d := testdb.Doctor(t, db, "Dr. Rao", 500, true)
	p := testdb.Patient(t, db, "Asha")
	now := time.Now().UTC()

	a := domain.NewAppointment(uuid.NewString(), d, p, domain.Slot{DoctorID: d.ID, Date: "2025-03-10", Time: "10:00"}, now)
	require.NoError(t, repo.Create(ctx, a))

	changed, err := repo.MarkPaid(ctx, a.ID, now)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.MarkPaid(ctx, a.ID, now)
	require.NoError(t, err)
	assert.False(t, changed)

	stale := *a
	require.NoError(t, a.Complete(now))
	changed, err = repo.SaveTransition(ctx, a, domain.AppointmentBooked)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, stale.Cancel(p.ID, now))
	changed, err = repo.SaveTransition(ctx, &stale, domain.AppointmentBooked)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentCompleted, got.Status)
	assert.True(t, got.Paid)
	assert.Equal(t, "Dr. Rao", got.Doctor.Name)
	assert.Equal(t, "Asha", got.Patient.Name)
	assert.True(t, got.Amount.Equal(d.Fee))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)
}

func TestAppointmentRepository_MarkPaidSkipsCancelled(t *testing.T) {
	db := testdb.New(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()
	d := testdb.Doctor(t, db, "Dr. Rao", 500, true)
	p := testdb.Patient(t, db, "Asha")
	now := time.Now().UTC()

	a := domain.NewAppointment(uuid.NewString(), d, p, domain.Slot{DoctorID: d.ID, Date: "2025-03-10", Time: "10:00"}, now)
	require.NoError(t, a.Cancel(p.ID, now))
	require.NoError(t, repo.Create(ctx, a))

	changed, err := repo.MarkPaid(ctx, a.ID, now)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestAppointmentRepository_ListNewestFirst(t *testing.T) {
	db := testdb.New(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()
	d := testdb.Doctor(t, db, "Dr. Rao", 500, true)
	p := testdb.Patient(t, db, "Asha")
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	var ids []string
	for i, slotTime := range []string{"09:00", "10:00", "11:00"} {
		a := domain.NewAppointment(uuid.NewString(), d, p, domain.Slot{DoctorID: d.ID, Date: "2025-03-10", Time: slotTime}, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, a))
		ids = append(ids, a.ID)
	}

	byDoctor, err := repo.ListByDoctor(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, byDoctor, 3)
	assert.Equal(t, ids[2], byDoctor[0].ID)
	assert.Equal(t, ids[0], byDoctor[2].ID)

	page, err := repo.ListAll(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)
}

func TestPaymentOrderRepository_MarkSettled(t *testing.T) {
	db := testdb.New(t)
	repo := NewPaymentOrderRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &domain.PaymentOrder{
		OrderRef:      "order_1",
		Receipt:       "rcpt_1",
		AppointmentID: "a1",
		AmountMinor:   50000,
		Currency:      "INR",
		Status:        domain.PaymentOrderCreated,
		CreatedAt:     now.Add(-10 * time.Minute),
	}))

	pending, err := repo.ListPendingOlderThan(ctx, now.Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	changed, err := repo.MarkSettled(ctx, "order_1", "paid", now)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.MarkSettled(ctx, "order_1", "paid", now)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, repo.UpdateStatus(ctx, "order_1", domain.PaymentOrderFailed, "failed", "late failure"))
	got, err := repo.GetByOrderRef(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentOrderPaid, got.Status)

	_, err = repo.GetByOrderRef(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrPaymentOrderNotFound)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	db := testdb.New(t)
	store := NewStore(db)
	ctx := context.Background()
	slot := domain.Slot{DoctorID: "d1", Date: "2025-03-10", Time: "10:00"}
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, tx.Slots.Insert(ctx, slot, "a1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := store.Slots.Exists(ctx, slot)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("constraint failed: UNIQUE constraint failed: booked_slots.doctor_id (2067)")))
	assert.False(t, isUniqueConstraintError(errors.New("connection reset")))
	assert.False(t, isUniqueConstraintError(nil))
}
