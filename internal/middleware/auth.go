package middleware

import (
	"net/http"
	"strings"

	"clinicbook/internal/domain"
	jwtsvc "clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxActorID = "actor_id"
	ctxRole    = "role"
)

// JWTAuth verifies the bearer token and stores the actor id and role on the
// gin context.
func JWTAuth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be a Bearer token")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Empty token")
			return
		}

		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		role := domain.Role(claims.Role)
		if !role.Valid() {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Unknown role")
			return
		}

		c.Set(ctxActorID, claims.SubjectID)
		c.Set(ctxRole, string(role))
		c.Next()
	}
}

// ActorFromContext returns the identity stored by JWTAuth.
func ActorFromContext(c *gin.Context) (domain.Actor, bool) {
	id := c.GetString(ctxActorID)
	role := c.GetString(ctxRole)
	if id == "" || role == "" {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: id, Role: domain.Role(role)}, true
}

// SetActor stores an actor on the context. Used by tests and internal callers
// that authenticate by other means.
func SetActor(c *gin.Context, actor domain.Actor) {
	c.Set(ctxActorID, actor.ID)
	c.Set(ctxRole, string(actor.Role))
}
