package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinicbook/internal/middleware"
	"clinicbook/internal/modules/availability"
	"clinicbook/internal/modules/ledger"
	"clinicbook/internal/modules/notify"
	"clinicbook/internal/modules/payment"
	"clinicbook/internal/modules/reservation"
	jwtsvc "clinicbook/internal/pkg/jwt"
)

type routerDeps struct {
	DB           *gorm.DB
	JWT          *jwtsvc.Service
	Hub          *notify.Hub
	Reservation  *reservation.Service
	Ledger       *ledger.Service
	Availability *availability.Service
	Payment      *payment.Handler // nil when payments are disabled
	Logger       *zap.Logger
	CORSOrigins  string
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorLogger(d.Logger))
	r.Use(middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	availabilityHandler := availability.NewHandler(d.Availability)
	ledgerHandler := ledger.NewHandler(d.Ledger)

	v1 := r.Group("/api/v1")
	{
		// public
		availabilityHandler.RegisterPublicRoutes(v1)
		notify.NewHandler(d.Hub, d.JWT, d.Logger).RegisterRoutes(v1)
		if d.Payment != nil {
			d.Payment.RegisterPublicRoutes(v1)
		}

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(d.JWT))
		{
			reservation.NewHandler(d.Reservation).RegisterRoutes(protected)
			ledgerHandler.RegisterRoutes(protected)
			availabilityHandler.RegisterRoutes(protected)
			if d.Payment != nil {
				d.Payment.RegisterRoutes(protected)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			ledgerHandler.RegisterAdminRoutes(admin)
		}
	}

	return r
}
