package main

import (
	"flag"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/domain"
	jwtsvc "clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/logging"
)

var doctors = []domain.Doctor{
	{Name: "Dr. Richard James", Email: "richard@clinicbook.local", Speciality: "General physician", Degree: "MBBS", Experience: "4 Years", Fee: decimal.NewFromInt(500), Available: true},
	{Name: "Dr. Emily Larson", Email: "emily@clinicbook.local", Speciality: "Gynecologist", Degree: "MBBS", Experience: "3 Years", Fee: decimal.NewFromInt(600), Available: true},
	{Name: "Dr. Sarah Patel", Email: "sarah@clinicbook.local", Speciality: "Dermatologist", Degree: "MBBS", Experience: "1 Year", Fee: decimal.NewFromInt(300), Available: true},
	{Name: "Dr. Christopher Lee", Email: "chris@clinicbook.local", Speciality: "Pediatricians", Degree: "MBBS", Experience: "2 Years", Fee: decimal.NewFromInt(400), Available: false},
	{Name: "Dr. Jennifer Garcia", Email: "jennifer@clinicbook.local", Speciality: "Neurologist", Degree: "MBBS", Experience: "4 Years", Fee: decimal.RequireFromString("750.50"), Available: true},
}

var patients = []domain.Patient{
	{Name: "Asha Rao", Email: "asha@example.com", Phone: "+91-9000000001", Gender: "Female", DOB: "1992-04-11"},
	{Name: "Vikram Singh", Email: "vikram@example.com", Phone: "+91-9000000002", Gender: "Male", DOB: "1987-09-30"},
}

func main() {
	reset := flag.Bool("reset", false, "delete existing appointments, slots, orders, doctors and patients first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	if *reset {
		if err := resetTables(db); err != nil {
			logger.Fatal("reset failed", zap.Error(err))
		}
		logger.Info("old data removed")
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	for i := range doctors {
		d := doctors[i]
		if err := db.Create(&d).Error; err != nil {
			logger.Fatal("create doctor failed", zap.String("name", d.Name), zap.Error(err))
		}
		printToken(j, logger, d.ID, domain.RoleDoctor, d.Name)
	}

	for i := range patients {
		p := patients[i]
		if err := db.Create(&p).Error; err != nil {
			logger.Fatal("create patient failed", zap.String("name", p.Name), zap.Error(err))
		}
		printToken(j, logger, p.ID, domain.RolePatient, p.Name)
	}

	printToken(j, logger, uuid.NewString(), domain.RoleAdmin, "admin")
	logger.Info("seed completed", zap.Int("doctors", len(doctors)), zap.Int("patients", len(patients)))
}

func resetTables(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"payment_orders", "booked_slots", "appointments", "doctors", "patients"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func printToken(j *jwtsvc.Service, logger *zap.Logger, id string, role domain.Role, name string) {
	token, err := j.GenerateToken(id, string(role))
	if err != nil {
		logger.Fatal("token generation failed", zap.Error(err))
	}
	fmt.Printf("%-8s %-22s id=%s\n         token=%s\n", role, name, id, token)
}
