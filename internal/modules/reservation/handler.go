package reservation

import (
	"context"
	"errors"
	"net/http"

	"clinicbook/internal/domain"
	"clinicbook/internal/middleware"
	"clinicbook/internal/pkg/response"
	"clinicbook/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	validator.RegisterGinValidators()
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/appointments", middleware.RequireRole(domain.RolePatient), h.BookAppointment)
	rg.POST("/appointments/:id/cancel", h.CancelAppointment)
	rg.POST("/appointments/:id/complete", middleware.RequireRole(domain.RoleDoctor), h.CompleteAppointment)
}

func (h *Handler) BookAppointment(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	appt, err := h.service.BookAppointment(c.Request.Context(), BookInput{
		PatientID: actor.ID,
		DoctorID:  req.DoctorID,
		SlotDate:  req.SlotDate,
		SlotTime:  req.SlotTime,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"appointment": appt})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	appt, err := h.service.CancelAppointment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointment": appt})
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	appt, err := h.service.CompleteAppointment(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointment": appt})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrDoctorNotFound),
		errors.Is(err, domain.ErrPatientNotFound),
		errors.Is(err, domain.ErrAppointmentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You cannot act on this appointment")
	case errors.Is(err, ErrSlotUnavailable):
		response.Error(c, http.StatusConflict, "SLOT_UNAVAILABLE", "Slot is not available")
	case errors.Is(err, ErrDoctorUnavailable):
		response.Error(c, http.StatusConflict, "DOCTOR_UNAVAILABLE", "Doctor is not available")
	case errors.Is(err, domain.ErrInvalidState):
		response.Error(c, http.StatusConflict, "INVALID_STATE", "Appointment is already cancelled or completed")
	case errors.Is(err, ErrTransient),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE", "Please retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process appointment")
	}
}
