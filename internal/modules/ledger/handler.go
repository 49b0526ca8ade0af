package ledger

import (
	"errors"
	"net/http"
	"strconv"

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/appointments/mine", h.ListMine)
	rg.GET("/appointments/:id", h.GetAppointment)
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/appointments", h.ListAll)
	admin.GET("/ledger/audit", h.Audit)
	admin.POST("/ledger/repair", h.Repair)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	appt, err := h.service.GetFor(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAppointmentNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found")
		case errors.Is(err, domain.ErrNotOwner):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You cannot view this appointment")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load appointment")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointment": appt})
}

func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	appts, err := h.service.ListMine(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load appointments")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointments": appts})
}

func (h *Handler) ListAll(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	appts, err := h.service.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load appointments")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"appointments": appts})
}

func (h *Handler) Audit(c *gin.Context) {
	report, err := h.service.Audit(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Audit failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report, "consistent": report.Consistent()})
}

func (h *Handler) Repair(c *gin.Context) {
	report, result, err := h.service.Repair(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Repair failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report, "result": result})
}
