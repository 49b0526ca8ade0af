package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"clinicbook/internal/domain"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultJWTTTL             = "24h"
	defaultLogLevel           = "info"
	defaultPaymentCurrency    = "INR"
	defaultProviderTimeout    = "10s"
	defaultSettledCacheTTL    = "24h"
	defaultReconcileSchedule  = "@every 5m"
	defaultReconcileMinAge    = "2m"
	defaultReconcileBatchSize = "50"
	defaultAuditSchedule      = "@hourly"
	defaultAuditRepair        = "false"
)

type Config struct {
	AppEnv             string
	HTTPAddr           string
	LogLevel           string
	CORSAllowedOrigins string

	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	RazorpayKeyID          string
	RazorpayKeySecret      string
	RazorpayWebhookSecret  string
	PaymentCurrency        string
	PaymentProviderTimeout time.Duration

	RedisAddr       string
	RedisPassword   string
	SettledCacheTTL time.Duration

	ReconcileSchedule  string
	ReconcileMinAge    time.Duration
	ReconcileBatchSize int
	AuditSchedule      string
	AuditRepair        bool
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))
	cfg.CORSAllowedOrigins = os.Getenv("CORS_ALLOWED_ORIGINS")
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.RazorpayKeyID = strings.TrimSpace(os.Getenv("RAZORPAY_KEY_ID"))
	cfg.RazorpayKeySecret = strings.TrimSpace(os.Getenv("RAZORPAY_KEY_SECRET"))
	cfg.RazorpayWebhookSecret = strings.TrimSpace(os.Getenv("RAZORPAY_WEBHOOK_SECRET"))
	cfg.PaymentCurrency = strings.ToUpper(strings.TrimSpace(getEnv("PAYMENT_CURRENCY", defaultPaymentCurrency)))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.ReconcileSchedule = strings.TrimSpace(getEnv("RECONCILE_SCHEDULE", defaultReconcileSchedule))
	cfg.AuditSchedule = strings.TrimSpace(getEnv("AUDIT_SCHEDULE", defaultAuditSchedule))
	cfg.AuditRepair = parseBoolEnv("AUDIT_REPAIR", defaultAuditRepair)

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.PaymentProviderTimeout, err = parseDurationEnv("PAYMENT_PROVIDER_TIMEOUT", defaultProviderTimeout); err != nil {
		return nil, err
	}
	if cfg.SettledCacheTTL, err = parseDurationEnv("SETTLED_CACHE_TTL", defaultSettledCacheTTL); err != nil {
		return nil, err
	}
	if cfg.ReconcileMinAge, err = parseDurationEnv("RECONCILE_MIN_AGE", defaultReconcileMinAge); err != nil {
		return nil, err
	}
	if cfg.ReconcileBatchSize, err = parseIntEnv("RECONCILE_BATCH_SIZE", defaultReconcileBatchSize); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PaymentsEnabled reports whether provider credentials are configured.
func (c *Config) PaymentsEnabled() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

func (c *Config) IsProdLike() bool { return isProdLike(c.AppEnv) }

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.PaymentProviderTimeout <= 0 {
		return fmt.Errorf("PAYMENT_PROVIDER_TIMEOUT must be > 0")
	}
	if cfg.SettledCacheTTL <= 0 {
		return fmt.Errorf("SETTLED_CACHE_TTL must be > 0")
	}
	if cfg.ReconcileMinAge < 0 {
		return fmt.Errorf("RECONCILE_MIN_AGE must be >= 0")
	}
	if cfg.ReconcileBatchSize <= 0 {
		return fmt.Errorf("RECONCILE_BATCH_SIZE must be > 0")
	}
	if len(cfg.PaymentCurrency) != 3 {
		return fmt.Errorf("PAYMENT_CURRENCY must be a 3-letter ISO code")
	}
	if !domain.HasCentMinorUnit(cfg.PaymentCurrency) {
		return fmt.Errorf("PAYMENT_CURRENCY %s is not supported: amounts are charged in hundredths", cfg.PaymentCurrency)
	}
	if (cfg.RazorpayKeyID == "") != (cfg.RazorpayKeySecret == "") {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set together")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if !cfg.PaymentsEnabled() {
			return fmt.Errorf("in prod/release RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
