package database

import (
	"strings"
	"time"

	"clinicbook/internal/domain"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Connect opens postgres for postgres:// DSNs and the pure-Go sqlite driver
// for anything else.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if log != nil {
			log.Info("connecting to postgres")
		}
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	if log != nil {
		log.Info("using sqlite", zap.String("dsn", dsn))
	}
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer; one connection keeps transactions serial.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Models lists every table owned by the reservation core.
func Models() []any {
	return []any{
		&domain.Doctor{},
		&domain.Patient{},
		&domain.Appointment{},
		&domain.BookedSlot{},
		&domain.PaymentOrder{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
