package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"clinicbook/internal/domain"
	"clinicbook/internal/middleware"
	"clinicbook/internal/pkg/logging"
	"clinicbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/razorpay/razorpay-go/utils"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type Handler struct {
	service       *Service
	webhookSecret string
	logger        *zap.Logger
}

func NewHandler(service *Service, webhookSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		service:       service,
		webhookSecret: webhookSecret,
		logger:        logging.OrNop(logger).Named("payment_http"),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/orders", middleware.RequireRole(domain.RolePatient, domain.RoleAdmin), h.CreateOrder)
	rg.POST("/payments/verify", h.VerifyPayment)
}

// RegisterPublicRoutes mounts the provider webhook. It is only mounted when a
// webhook secret is configured.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	if h.webhookSecret == "" {
		return
	}
	rg.POST("/payments/webhook", h.Webhook)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ref, err := h.service.CreatePaymentOrder(c.Request.Context(), actor, req.AppointmentID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"order": ref.Raw})
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	conf, err := h.service.ConfirmPayment(c.Request.Context(), req.OrderID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": conf})
}

// Webhook handles provider order/payment notifications. Anything that cannot
// succeed on redelivery is acknowledged with 200 so the provider stops
// retrying; only transient failures return 5xx.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unreadable body")
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if signature == "" || !utils.VerifyWebhookSignature(string(body), signature, h.webhookSecret) {
		h.logger.Warn("webhook signature rejected", zap.String("client_ip", c.ClientIP()))
		response.Error(c, http.StatusForbidden, "INVALID_SIGNATURE", ErrInvalidSignature.Error())
		return
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.orderID() == "" {
		h.logger.Warn("webhook payload without order id", zap.String("event", ev.Event))
		response.Success(c, http.StatusOK, gin.H{"ignored": true})
		return
	}

	conf, err := h.service.ConfirmPayment(c.Request.Context(), ev.orderID())
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"payment": conf})
	case errors.Is(err, ErrProviderUnavailable):
		writeError(c, err)
	case errors.Is(err, ErrPaymentFailed):
		response.Success(c, http.StatusOK, gin.H{"ignored": true})
	default:
		h.logger.Warn("webhook not applied",
			zap.String("event", ev.Event),
			zap.String("order_id", ev.orderID()),
			zap.Error(err),
		)
		response.Success(c, http.StatusOK, gin.H{"ignored": true})
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrAppointmentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrAlreadyCancelled):
		response.Error(c, http.StatusConflict, "ALREADY_CANCELLED", err.Error())
	case errors.Is(err, ErrAlreadyPaid):
		response.Error(c, http.StatusConflict, "ALREADY_PAID", err.Error())
	case errors.Is(err, ErrPaymentFailed):
		response.Error(c, http.StatusConflict, "PAYMENT_FAILED", err.Error())
	case errors.Is(err, ErrReceiptNotFound), errors.Is(err, ErrAmountMismatch):
		response.Error(c, http.StatusUnprocessableEntity, "INTEGRITY_ERROR", err.Error())
	case errors.Is(err, ErrDuplicatePayment):
		response.Error(c, http.StatusUnprocessableEntity, "DUPLICATE_PAYMENT", err.Error())
	case errors.Is(err, ErrProviderUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "Payment provider unavailable, retry later")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
