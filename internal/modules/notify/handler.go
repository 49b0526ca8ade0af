package notify

import (
	"net/http"

	"clinicbook/internal/domain"
	"clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/logging"
	"clinicbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browsers cannot set headers on the handshake; auth is the query token
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	hub    *Hub
	jwt    *jwt.Service
	logger *zap.Logger
}

func NewHandler(hub *Hub, jwtService *jwt.Service, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, jwt: jwtService, logger: logging.OrNop(logger).Named("notify_ws")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/appointments", h.Connect)
}

// Connect upgrades to a WebSocket that streams the caller's appointment
// events. The bearer token is passed as ?token=.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required, use ?token=")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil || !domain.Role(claims.Role).Valid() {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.logger.Debug("socket connected", zap.String("subject_id", claims.SubjectID), zap.String("role", claims.Role))
	h.hub.Serve(conn, claims.SubjectID)
}
