package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooked() *Appointment {
	doctor := &Doctor{ID: "d1", Name: "Dr. Rao", Speciality: "Dermatologist", Fee: decimal.NewFromInt(500)}
	patient := &Patient{ID: "p1", Name: "Asha", Email: "asha@example.com"}
	return NewAppointment("a1", doctor, patient, Slot{DoctorID: "d1", Date: "2025-03-10", Time: "10:00"}, time.Now())
}

func TestNewAppointment_CopiesSnapshots(t *testing.T) {
	a := newBooked()

	assert.Equal(t, AppointmentBooked, a.Status)
	assert.False(t, a.Paid)
	assert.Equal(t, "Dr. Rao", a.Doctor.Name)
	assert.Equal(t, "asha@example.com", a.Patient.Email)
	assert.True(t, a.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, Slot{DoctorID: "d1", Date: "2025-03-10", Time: "10:00"}, a.Slot())
}

func TestAppointment_TerminalStatesAreExclusive(t *testing.T) {
	now := time.Now()

	cancelled := newBooked()
	require.NoError(t, cancelled.Cancel("p1", now))
	assert.ErrorIs(t, cancelled.Complete(now), ErrInvalidState)
	assert.ErrorIs(t, cancelled.Cancel("p1", now), ErrInvalidState)
	assert.Equal(t, "p1", cancelled.CancelledBy)
	assert.NotNil(t, cancelled.CancelledAt)

	completed := newBooked()
	require.NoError(t, completed.Complete(now))
	assert.ErrorIs(t, completed.Cancel("d1", now), ErrInvalidState)
	assert.Equal(t, AppointmentCompleted, completed.Status)
	assert.True(t, completed.IsTerminal())
}

func TestAppointment_MarkPaid(t *testing.T) {
	now := time.Now()

	a := newBooked()
	changed, err := a.MarkPaid(now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, AppointmentBooked, a.Status)

	changed, err = a.MarkPaid(now)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, a.Complete(now))
	assert.True(t, a.Paid)

	c := newBooked()
	require.NoError(t, c.Cancel("p1", now))
	_, err = c.MarkPaid(now)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.False(t, c.Paid)
}

func TestSlot_Validate(t *testing.T) {
	tests := []struct {
		slot  Slot
		valid bool
	}{
		{Slot{DoctorID: "d1", Date: "2025-03-10", Time: "10:00"}, true},
		{Slot{DoctorID: "d1", Date: "2025-02-30", Time: "10:00"}, false},
		{Slot{DoctorID: "d1", Date: "10_3_2025", Time: "10:00"}, false},
		{Slot{DoctorID: "d1", Date: "2025-03-10", Time: "10:00 AM"}, false},
		{Slot{DoctorID: "d1", Date: "2025-03-10", Time: "9:00"}, false},
		{Slot{Date: "2025-03-10", Time: "10:00"}, false},
	}

	for _, tt := range tests {
		err := tt.slot.Validate()
		if tt.valid {
			assert.NoError(t, err, tt.slot)
		} else {
			assert.ErrorIs(t, err, ErrValidation, tt.slot)
		}
	}
}

func TestActorPermissions(t *testing.T) {
	a := newBooked()

	assert.True(t, Actor{ID: "p1", Role: RolePatient}.CanManage(a))
	assert.True(t, Actor{ID: "d1", Role: RoleDoctor}.CanManage(a))
	assert.True(t, Actor{ID: "x", Role: RoleAdmin}.CanManage(a))
	assert.False(t, Actor{ID: "p2", Role: RolePatient}.CanManage(a))
	assert.False(t, Actor{ID: "p1", Role: RoleDoctor}.CanManage(a))

	assert.True(t, Actor{ID: "p1", Role: RolePatient}.CanPay(a))
	assert.False(t, Actor{ID: "d1", Role: RoleDoctor}.CanPay(a))

	assert.True(t, Actor{ID: "d1", Role: RoleDoctor}.CanEditDoctor("d1"))
	assert.False(t, Actor{ID: "d2", Role: RoleDoctor}.CanEditDoctor("d1"))
	assert.False(t, Actor{ID: "d1", Role: RolePatient}.CanEditDoctor("d1"))
}

func TestReceiptFor(t *testing.T) {
	r := ReceiptFor("0f8c2a1e-7d3b-4c55-9a1f-2b3c4d5e6f70")
	assert.Equal(t, "rcpt_0f8c2a1e7d3b4c559a1f2b3c4d5e6f70", r)
	assert.LessOrEqual(t, len(r), 40)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(50000), MinorUnits(decimal.NewFromInt(500)))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99")))
}

func TestHasCentMinorUnit(t *testing.T) {
	assert.True(t, HasCentMinorUnit("INR"))
	assert.True(t, HasCentMinorUnit("usd"))
	assert.False(t, HasCentMinorUnit("JPY"))
	assert.False(t, HasCentMinorUnit("KWD"))
}
