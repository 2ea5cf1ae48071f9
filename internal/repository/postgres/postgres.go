package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repos returns repositories bound to the plain connection.
func (s *Store) Repos() repository.Repositories {
	return newRepositories(s.db)
}

// RunInTx runs fn with repositories bound to a single transaction.
// A nil return commits; anything else rolls back and is returned unchanged.
func (s *Store) RunInTx(ctx context.Context, fn repository.TxFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("postgres.Store.RunInTx", err)
	}

	if err := fn(ctx, newRepositories(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("postgres.Store.RunInTx", err)
	}
	return nil
}

func newRepositories(db repository.DBTX) repository.Repositories {
	return repository.Repositories{
		Equipment: NewEquipmentRepository(db),
		Customers: NewCustomerRepository(db),
		Rentals:   NewRentalRepository(db),
		Counters:  NewCounterRepository(db),
		Audit:     NewAuditRepository(db),
		History:   NewHistoryRepository(db),
		Lookups:   NewLookupRepository(db),
		Settings:  NewSettingsRepository(db),
	}
}

// wrapErr maps a missing row to ErrNotFound and everything else to ErrPersistence.
func wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}

// requireAffected turns an update or delete that matched nothing into ErrNotFound.
func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
