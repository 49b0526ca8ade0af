// Package testdb opens migrated in-memory sqlite databases for package tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"

	"clinicbook/internal/database"
	"clinicbook/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_time_format=sqlite", name, uuid.NewString()[:8])
	db, err := database.Connect(dsn, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func Doctor(t testing.TB, db *gorm.DB, name string, fee int64, available bool) *domain.Doctor {
	t.Helper()

	d := &domain.Doctor{
		Name:       name,
		Speciality: "General physician",
		Fee:        decimal.NewFromInt(fee),
		Available:  available,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return d
}

func Patient(t testing.TB, db *gorm.DB, name string) *domain.Patient {
	t.Helper()

	p := &domain.Patient{
		Name:  name,
		Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Phone: "+91-9000000000",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}
