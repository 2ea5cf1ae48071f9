package repository

import (
	"context"
	"database/sql"
	"time"

	"mediarent-backend/internal/domain"

	"github.com/google/uuid"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type EquipmentRepository interface {
	Create(ctx context.Context, e *domain.Equipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error)
	GetByInventoryNumber(ctx context.Context, number string) (*domain.Equipment, error)
	// Update writes descriptive fields only; availability and the active flag
	// have their own methods.
	Update(ctx context.Context, e *domain.Equipment) error
	List(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error)
	// LockByIDs loads the given units with SELECT ... FOR UPDATE. Missing IDs
	// are simply absent from the returned set.
	LockByIDs(ctx context.Context, ids []uuid.UUID) (domain.EquipmentSet, error)
	UpdateAvailability(ctx context.Context, set domain.EquipmentSet) error
	SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error
}

type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
	List(ctx context.Context, search string) ([]domain.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type RentalRepository interface {
	// Create inserts the rental and all of its items.
	Create(ctx context.Context, r *domain.Rental) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error)
	// GetForUpdate is GetByID holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rental, error)
	Update(ctx context.Context, r *domain.Rental) error
	AddItem(ctx context.Context, item *domain.RentalItem) error
	UpdateItemConditions(ctx context.Context, items []domain.RentalItem) error
	List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// HeldEquipmentIDs returns every unit referenced by a reserved or active rental.
	HeldEquipmentIDs(ctx context.Context) ([]uuid.UUID, error)
}

type CounterRepository interface {
	// Next atomically increments the counter and returns the new value.
	// The first call for a key returns 1.
	Next(ctx context.Context, key string) (int64, error)
}

type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditLog) error
	ListByEntity(ctx context.Context, entity, entityID string) ([]domain.AuditLog, error)
}

type HistoryRepository interface {
	AddMaintenance(ctx context.Context, m *domain.MaintenanceRecord) error
	AddDamage(ctx context.Context, d *domain.DamageReport) error
	ListMaintenance(ctx context.Context, equipmentID uuid.UUID) ([]domain.MaintenanceRecord, error)
	ListDamage(ctx context.Context, equipmentID uuid.UUID) ([]domain.DamageReport, error)
}

type LookupRepository interface {
	Create(ctx context.Context, l *domain.Lookup) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lookup, error)
	Update(ctx context.Context, l *domain.Lookup) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error)
}

type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Repositories is one consistent view of storage: either the plain
// connection or a single transaction.
type Repositories struct {
	Equipment EquipmentRepository
	Customers CustomerRepository
	Rentals   RentalRepository
	Counters  CounterRepository
	Audit     AuditRepository
	History   HistoryRepository
	Lookups   LookupRepository
	Settings  SettingsRepository
}

// TxFunc runs with repositories bound to one transaction.
type TxFunc func(ctx context.Context, repos Repositories) error

// Store hands out repositories and runs units of work. RunInTx commits when
// fn returns nil and rolls back otherwise.
type Store interface {
	Repos() Repositories
	RunInTx(ctx context.Context, fn TxFunc) error
}
