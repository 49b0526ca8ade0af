package reservation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinicbook/internal/domain"
	"clinicbook/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Actor"); id != "" {
			middleware.SetActor(c, domain.Actor{ID: id, Role: domain.Role(c.GetHeader("X-Test-Role"))})
		}
		c.Next()
	})
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSONRequest(t *testing.T, r *gin.Engine, method, path string, body any, actor domain.Actor) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != "" {
		req.Header.Set("X-Test-Actor", actor.ID)
		req.Header.Set("X-Test-Role", string(actor.Role))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool `json:"success"`
	Data    struct {
		Appointment domain.Appointment `json:"appointment"`
	} `json:"data"`
	Error struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandler_BookAndCancel(t *testing.T) {
	f := newFixture(t)
	r := setupRouter(f)
	patient := domain.Actor{ID: f.patient.ID, Role: domain.RolePatient}
	body := map[string]string{"doctor_id": f.doctor.ID, "slot_date": "2025-03-10", "slot_time": "10:00"}

	w := doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments", body, patient)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.True(t, created.Success)
	assert.Equal(t, domain.AppointmentBooked, created.Data.Appointment.Status)

	w = doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments", body, patient)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLOT_UNAVAILABLE", decode(t, w).Error.Code)

	w = doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments/"+created.Data.Appointment.ID+"/cancel", nil,
		domain.Actor{ID: "stranger", Role: domain.RolePatient})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments/"+created.Data.Appointment.ID+"/cancel", nil, patient)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.AppointmentCancelled, decode(t, w).Data.Appointment.Status)

	w = doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments/"+created.Data.Appointment.ID+"/cancel", nil, patient)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decode(t, w).Error.Code)
}

func TestHandler_BookValidation(t *testing.T) {
	f := newFixture(t)
	r := setupRouter(f)
	patient := domain.Actor{ID: f.patient.ID, Role: domain.RolePatient}

	w := doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments",
		map[string]string{"doctor_id": f.doctor.ID, "slot_date": "10_3_2025", "slot_time": "10:00"}, patient)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, map[string]string{"SlotDate": "slotdate"}, env.Error.Details)

	w = doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments",
		map[string]string{"doctor_id": "nope", "slot_date": "2025-03-10", "slot_time": "10:00"}, patient)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments",
		map[string]string{"doctor_id": f.doctor.ID, "slot_date": "2025-03-10", "slot_time": "10:00"},
		domain.Actor{ID: f.doctor.ID, Role: domain.RoleDoctor})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments",
		map[string]string{"doctor_id": f.doctor.ID, "slot_date": "2025-03-10", "slot_time": "10:00"}, domain.Actor{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Complete(t *testing.T) {
	f := newFixture(t)
	r := setupRouter(f)

	a, err := f.book(f.patient.ID, f.doctor.ID, "2025-03-10", "10:00")
	require.NoError(t, err)

	w := doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments/"+a.ID+"/complete", nil,
		domain.Actor{ID: f.patient.ID, Role: domain.RolePatient})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSONRequest(t, r, http.MethodPost, "/api/v1/appointments/"+a.ID+"/complete", nil,
		domain.Actor{ID: f.doctor.ID, Role: domain.RoleDoctor})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.AppointmentCompleted, decode(t, w).Data.Appointment.Status)
}
