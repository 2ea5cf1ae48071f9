package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"time"

	_ "github.com/lib/pq"

	"mediarent-backend/internal/config"
	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/logger"
	"mediarent-backend/internal/repository/postgres"
	"mediarent-backend/internal/security"
	"mediarent-backend/internal/service"
	"mediarent-backend/internal/storage"
)

// app is everything a command may need
type app struct {
	cfg       *config.Config
	db        *sql.DB
	lock      *security.AppLock
	rentals   *service.RentalService
	equipment *service.EquipmentService
	customers *service.CustomerService
	lookups   *service.LookupService
	session   sessionFile
	out       io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"migrate":         runMigrate,
	"set-pin":         runSetPIN,
	"unlock":          runUnlock,
	"overdue":         runOverdue,
	"qr":              runQR,
	"equipment-add":   runEquipmentAdd,
	"customer-add":    runCustomerAdd,
	"lookup-add":      runLookupAdd,
	"lookup-list":     runLookupList,
	"lookup-update":   runLookupUpdate,
	"lookup-delete":   runLookupDelete,
	"rental-create":   runRentalCreate,
	"rental-start":    runRentalStart,
	"rental-cancel":   runRentalCancel,
	"rental-complete": runRentalComplete,
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	name, args := flag.Arg(0), flag.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	a, err := newApp(cfg, db, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	if err := a.authorize(name); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}

	if err := cmd(ctx, a, args); err != nil {
		logger.WithMethod(name).Error("Command failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(exitCode(err))
	}
}

func newApp(cfg *config.Config, db *sql.DB, out io.Writer) (*app, error) {
	store := postgres.NewStore(db)
	repos := store.Repos()

	signatures, err := storage.NewLocalSignatureStore(storage.Config{
		Dir:           cfg.Storage.SignatureDir,
		MaxFileSizeKB: cfg.Storage.MaxFileSizeKB,
		AllowedTypes:  cfg.Storage.AllowedTypes,
	})
	if err != nil {
		return nil, err
	}

	numbering := service.NewNumberingService(repos.Counters, service.Prefixes{
		Inventory: cfg.Numbering.InventoryPrefix,
		Customer:  cfg.Numbering.CustomerPrefix,
		Rental:    cfg.Numbering.RentalPrefix,
	})

	lock := security.NewAppLock(repos.Settings, security.NewTokenManager(cfg.Security.Secret), security.AppLockConfig{
		AutoLock:    time.Duration(cfg.Security.AutoLockMinutes) * time.Minute,
		MaxAttempts: cfg.Security.MaxAttempts,
		Lockout:     time.Duration(cfg.Security.LockoutMinutes) * time.Minute,
	})

	return &app{
		cfg:       cfg,
		db:        db,
		lock:      lock,
		rentals:   service.NewRentalService(store, numbering, signatures),
		equipment: service.NewEquipmentService(store, numbering),
		customers: service.NewCustomerService(store, numbering),
		lookups:   service.NewLookupService(store),
		session:   sessionFile(cfg.Security.SessionFile),
		out:       out,
	}, nil
}

// authorize checks the stored unlock session for commands that change data
func (a *app) authorize(command string) error {
	if config.RequiredLevel(command) == config.SecurityPublic {
		return nil
	}
	token, err := a.session.Read()
	if err != nil {
		return fmt.Errorf("%w: run 'rentalctl unlock' first", domain.ErrLocked)
	}
	if err := a.lock.IsUnlocked(token); err != nil {
		return fmt.Errorf("%w: run 'rentalctl unlock' first", err)
	}
	return nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidTransition):
		return 4
	case errors.Is(err, domain.ErrNotFound):
		return 5
	case errors.Is(err, domain.ErrLocked):
		return 3
	default:
		return 1
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: rentalctl [-config path] <command> [flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
}
