package availability

import (
	"errors"
	"net/http"

	"clinicbook/internal/domain"
	"clinicbook/internal/middleware"
	"clinicbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes exposes the read-only doctor listing and calendar.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/doctors", h.ListDoctors)
	rg.GET("/doctors/:id/calendar", h.GetCalendar)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	editors := middleware.RequireRole(domain.RoleDoctor, domain.RoleAdmin)
	rg.PUT("/doctors/:id/availability", editors, h.SetAvailability)
	rg.POST("/doctors/:id/availability/toggle", editors, h.ToggleAvailability)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors(c.Request.Context(), c.Query("available") == "true")
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load doctors")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"doctors": doctors})
}

func (h *Handler) GetCalendar(c *gin.Context) {
	view, err := h.service.Calendar(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) SetAvailability(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "available must be true or false")
		return
	}

	doctor, err := h.service.SetAvailable(c.Request.Context(), actor, c.Param("id"), *req.Available)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"doctor_id": doctor.ID, "available": doctor.Available})
}

func (h *Handler) ToggleAvailability(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	doctor, err := h.service.Toggle(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"doctor_id": doctor.ID, "available": doctor.Available})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrDoctorNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Doctor not found")
	case errors.Is(err, domain.ErrNotOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You cannot change this doctor's availability")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update availability")
	}
}
