package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/modules/calendar"
	"clinicbook/internal/modules/ledger"
	"clinicbook/internal/pkg/logging"
	"clinicbook/internal/repository"
)

// ledger_audit compares booked slots with active appointments once and
// prints the report as JSON. Exit status 2 means the ledger is inconsistent.
func main() {
	repair := flag.Bool("repair", false, "release orphan slots and restore missing ones")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall time limit")
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
		logger.Fatal("db connect failed", zap.Error(err))
	}

	store := repository.NewStore(db)
	svc := ledger.NewService(store, calendar.New(store.Slots, nil), nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	out := struct {
		Report *ledger.AuditReport  `json:"report"`
		Repair *ledger.RepairResult `json:"repair,omitempty"`
	}{}
	if *repair {
		out.Report, out.Repair, err = svc.Repair(ctx)
	} else {
		out.Report, err = svc.Audit(ctx)
	}
	if err != nil {
		logger.Fatal("ledger audit failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal("write report failed", zap.Error(err))
	}

	if !out.Report.Consistent() && (out.Repair == nil || out.Repair.Unresolved > 0) {
		_ = logger.Sync()
		os.Exit(2)
	}
}
