package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"clinicbook/internal/domain"
	"clinicbook/internal/modules/availability"
	"clinicbook/internal/modules/calendar"
	"clinicbook/internal/modules/ledger"
	"clinicbook/internal/modules/notify"
	"clinicbook/internal/modules/payment"
	"clinicbook/internal/modules/reservation"
	jwtsvc "clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/testdb"
	"clinicbook/internal/repository"
)

// stubProvider settles every order it created.
type stubProvider struct {
	mu     sync.Mutex
	orders map[string]payment.ProviderOrder
}

func (p *stubProvider) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (payment.OrderRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := "order_" + receipt[len(receipt)-8:]
	p.orders[id] = payment.ProviderOrder{ID: id, Status: payment.ProviderStatusPaid, Receipt: receipt, AmountMinor: amountMinor, Currency: currency}
	return payment.OrderRef{ID: id, Raw: map[string]interface{}{"id": id, "amount": amountMinor, "currency": currency, "receipt": receipt}}, nil
}

func (p *stubProvider) FetchOrder(_ context.Context, id string) (payment.ProviderOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[id]
	if !ok {
		return payment.ProviderOrder{ID: id, Status: payment.ProviderStatusCreated}, nil
	}
	return o, nil
}

type E2ETestSuite struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *jwtsvc.Service
}

type TestResponse struct {
	Status  int                    `json:"-"`
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testdb.New(t)
	store := repository.NewStore(db)
	cal := calendar.New(store.Slots, nil)
	hub := notify.NewHub(nil)
	t.Cleanup(hub.Close)
	j := jwtsvc.New("e2e-secret", time.Hour)

	paymentService := payment.NewService(store, &stubProvider{orders: map[string]payment.ProviderOrder{}}, payment.Options{Events: hub})

	return &E2ETestSuite{
		router: newRouter(routerDeps{
			DB:           db,
			JWT:          j,
			Hub:          hub,
			Reservation:  reservation.NewService(store, cal, hub, nil, nil),
			Ledger:       ledger.NewService(store, cal, nil, nil),
			Availability: availability.NewService(store, cal, nil),
			Payment:      payment.NewHandler(paymentService, "", nil),
		}),
		db:  db,
		jwt: j,
	}
}

func (s *E2ETestSuite) token(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(id, string(role))
	require.NoError(t, err)
	return tok
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body interface{}, token string) *TestResponse {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	resp.Status = w.Code
	return &resp
}

func appointmentID(t *testing.T, resp *TestResponse) string {
	t.Helper()
	appt, ok := resp.Data["appointment"].(map[string]interface{})
	require.True(t, ok, "response has no appointment: %+v", resp)
	return appt["id"].(string)
}

func TestFlow1_BookCancelRebook(t *testing.T) {
	s := setupTestSuite(t)
	doctor := testdb.Doctor(t, s.db, "Dr. Richard James", 500, true)
	asha := testdb.Patient(t, s.db, "Asha Rao")
	vikram := testdb.Patient(t, s.db, "Vikram Singh")
	ashaToken := s.token(t, asha.ID, domain.RolePatient)
	vikramToken := s.token(t, vikram.ID, domain.RolePatient)

	slot := map[string]string{"doctor_id": doctor.ID, "slot_date": "2026-11-02", "slot_time": "10:30"}

	resp := s.makeRequest(t, http.MethodPost, "/api/v1/appointments", slot, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/appointments", slot, ashaToken)
	require.Equal(t, http.StatusCreated, resp.Status, "%+v", resp.Error)
	first := appointmentID(t, resp)

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/appointments", slot, vikramToken)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "SLOT_UNAVAILABLE", resp.Error.Code)

	resp = s.makeRequest(t, http.MethodGet, "/api/v1/doctors/"+doctor.ID+"/calendar", nil, "")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]interface{}{"2026-11-02": []interface{}{"10:30"}}, resp.Data["slots_booked"])

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/appointments/"+first+"/cancel", nil, vikramToken)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/appointments/"+first+"/cancel", nil, ashaToken)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/appointments", slot, vikramToken)
	require.Equal(t, http.StatusCreated, resp.Status)

	resp = s.makeRequest(t, http.MethodGet, "/api/v1/appointments/mine", nil, ashaToken)
	require.Equal(t, http.StatusOK, resp.Status)
	mine := resp.Data["appointments"].([]interface{})
	require.Len(t, mine, 1)
	assert.Equal(t, string(domain.AppointmentCancelled), mine[0].(map[string]interface{})["status"])
}

func TestFlow2_AvailabilityToggle(t *testing.T) {
	s := setupTestSuite(t)
	doctor := testdb.Doctor(t, s.db, "Dr. Emily Larson", 600, true)
	patient := testdb.Patient(t, s.db, "Asha Rao")
	doctorToken := s.token(t, doctor.ID, domain.RoleDoctor)
	patientToken := s.token(t, patient.ID, domain.RolePatient)

	resp := s.makeRequest(t, http.MethodPost, "/api/v1/doctors/"+doctor.ID+"/availability/toggle", nil, patientToken)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/doctors/"+doctor.ID+"/availability/toggle", nil, doctorToken)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, false, resp.Data["available"])

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/appointments",
		map[string]string{"doctor_id": doctor.ID, "slot_date": "2026-11-03", "slot_time": "09:00"}, patientToken)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "DOCTOR_UNAVAILABLE", resp.Error.Code)

	resp = s.makeRequest(t, http.MethodPut, "/api/v1/doctors/"+doctor.ID+"/availability", map[string]bool{"available": true}, doctorToken)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, true, resp.Data["available"])
}

func TestFlow3_PayAndComplete(t *testing.T) {
	s := setupTestSuite(t)
	doctor := testdb.Doctor(t, s.db, "Dr. Sarah Patel", 300, true)
	patient := testdb.Patient(t, s.db, "Asha Rao")
	doctorToken := s.token(t, doctor.ID, domain.RoleDoctor)
	patientToken := s.token(t, patient.ID, domain.RolePatient)

	resp := s.makeRequest(t, http.MethodPost, "/api/v1/appointments",
		map[string]string{"doctor_id": doctor.ID, "slot_date": "2026-11-04", "slot_time": "15:00"}, patientToken)
	require.Equal(t, http.StatusCreated, resp.Status)
	id := appointmentID(t, resp)

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/payments/orders", map[string]string{"appointment_id": id}, patientToken)
	require.Equal(t, http.StatusCreated, resp.Status, "%+v", resp.Error)
	order := resp.Data["order"].(map[string]interface{})
	assert.Equal(t, float64(30000), order["amount"])

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/payments/verify", map[string]string{"razorpay_order_id": order["id"].(string)}, patientToken)
	require.Equal(t, http.StatusOK, resp.Status, "%+v", resp.Error)

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/payments/orders", map[string]string{"appointment_id": id}, patientToken)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "ALREADY_PAID", resp.Error.Code)

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/appointments/"+id+"/complete", nil, doctorToken)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = s.makeRequest(t, http.MethodGet, "/api/v1/appointments/"+id, nil, patientToken)
	require.Equal(t, http.StatusOK, resp.Status)
	appt := resp.Data["appointment"].(map[string]interface{})
	assert.Equal(t, true, appt["paid"])
	assert.Equal(t, string(domain.AppointmentCompleted), appt["status"])
}

func TestFlow4_AdminAudit(t *testing.T) {
	s := setupTestSuite(t)
	doctor := testdb.Doctor(t, s.db, "Dr. Jennifer Garcia", 750, true)
	patient := testdb.Patient(t, s.db, "Asha Rao")
	adminToken := s.token(t, "admin-1", domain.RoleAdmin)
	patientToken := s.token(t, patient.ID, domain.RolePatient)

	resp := s.makeRequest(t, http.MethodPost, "/api/v1/appointments",
		map[string]string{"doctor_id": doctor.ID, "slot_date": "2026-11-05", "slot_time": "11:00"}, patientToken)
	require.Equal(t, http.StatusCreated, resp.Status)

	// a slot row left behind with no appointment
	require.NoError(t, s.db.Create(&domain.BookedSlot{DoctorID: doctor.ID, SlotDate: "2026-11-05", SlotTime: "12:00", AppointmentID: "gone"}).Error)

	resp = s.makeRequest(t, http.MethodGet, "/api/v1/admin/ledger/audit", nil, patientToken)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = s.makeRequest(t, http.MethodGet, "/api/v1/admin/ledger/audit", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, false, resp.Data["consistent"])

	resp = s.makeRequest(t, http.MethodPost, "/api/v1/admin/ledger/repair", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, float64(1), resp.Data["result"].(map[string]interface{})["released"])

	resp = s.makeRequest(t, http.MethodGet, "/api/v1/admin/ledger/audit", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, true, resp.Data["consistent"])

	resp = s.makeRequest(t, http.MethodGet, "/api/v1/admin/appointments", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, resp.Data["appointments"], 1)
}

func TestHealth(t *testing.T) {
	s := setupTestSuite(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
