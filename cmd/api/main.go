package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/jobs"
	"clinicbook/internal/modules/availability"
	"clinicbook/internal/modules/calendar"
	"clinicbook/internal/modules/ledger"
	"clinicbook/internal/modules/notify"
	"clinicbook/internal/modules/payment"
	"clinicbook/internal/modules/reservation"
	jwtsvc "clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/logging"
	"clinicbook/internal/pkg/metrics"
	"clinicbook/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	m := metrics.NewReservationMetrics(prometheus.DefaultRegisterer)
	store := repository.NewStore(db)
	cal := calendar.New(store.Slots, m)
	hub := notify.NewHub(logger)
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	reservationService := reservation.NewService(store, cal, hub, m, logger)
	ledgerService := ledger.NewService(store, cal, m, logger)
	availabilityService := availability.NewService(store, cal, logger)

	scheduler := jobs.NewScheduler(logger)
	auditJob := func(ctx context.Context) error {
		if cfg.AuditRepair {
			_, _, err := ledgerService.Repair(ctx)
			return err
		}
		_, err := ledgerService.Audit(ctx)
		return err
	}
	if err := scheduler.Every(cfg.AuditSchedule, "ledger_audit", auditJob); err != nil {
		return err
	}

	var paymentHandler *payment.Handler
	if cfg.PaymentsEnabled() {
		client := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
		paymentService := payment.NewService(store, payment.NewRazorpayProvider(client, cfg.PaymentProviderTimeout), payment.Options{
			Cache:    settledCache(cfg, logger),
			Events:   hub,
			Metrics:  m,
			Logger:   logger,
			Currency: cfg.PaymentCurrency,
		})
		paymentHandler = payment.NewHandler(paymentService, cfg.RazorpayWebhookSecret, logger)

		sweeper := payment.NewSweeper(store.PaymentOrders, paymentService, payment.SweeperOptions{
			MinAge:    cfg.ReconcileMinAge,
			BatchSize: cfg.ReconcileBatchSize,
			Logger:    logger,
		})
		err := scheduler.Every(cfg.ReconcileSchedule, "payment_reconcile", func(ctx context.Context) error {
			_, err := sweeper.RunOnce(ctx)
			return err
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("payments disabled: RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are not set")
	}

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(routerDeps{
		DB:           db,
		JWT:          j,
		Hub:          hub,
		Reservation:  reservationService,
		Ledger:       ledgerService,
		Availability: availabilityService,
		Payment:      paymentHandler,
		Logger:       logger,
		CORSOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		scheduler.Stop(5 * time.Second)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	scheduler.Stop(10 * time.Second)
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}

// settledCache connects to Redis when configured. Without it every
// confirmation goes to the provider.
func settledCache(cfg *config.Config, logger *zap.Logger) payment.SettledCache {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, settled cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return payment.NewRedisSettledCache(client, cfg.SettledCacheTTL)
}
