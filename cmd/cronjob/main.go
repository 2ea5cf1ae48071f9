package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"mediarent-backend/internal/config"
	"mediarent-backend/internal/jobs"
	"mediarent-backend/internal/logger"
	"mediarent-backend/internal/repository/postgres"
	"mediarent-backend/internal/scheduler"
	"mediarent-backend/internal/service"
	"mediarent-backend/migrations"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'report-overdue-rentals', 'all')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting MediaRent Cronjob Runner...", "log_level", cfg.Log.Level)

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	version, err := migrations.Up(context.Background(), db)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	logger.Info("Schema is current", "version", version)

	store := postgres.NewStore(db)
	numbering := service.NewNumberingService(store.Repos().Counters, service.Prefixes{
		Inventory: cfg.Numbering.InventoryPrefix,
		Customer:  cfg.Numbering.CustomerPrefix,
		Rental:    cfg.Numbering.RentalPrefix,
	})

	jobRunner := jobs.NewJobRunner(&jobs.Services{
		Rentals:   service.NewRentalService(store, numbering, nil),
		Equipment: service.NewEquipmentService(store, numbering),
	}, cfg)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner, nil)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "report-overdue-rentals":
		jobRunner.ReportOverdueRentals()
	case "reconcile-equipment-availability":
		jobRunner.ReconcileEquipmentAvailability()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - report-overdue-rentals\n")
		fmt.Printf("  - reconcile-equipment-availability\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
