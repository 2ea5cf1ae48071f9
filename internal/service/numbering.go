package service

import (
	"context"
	"fmt"
	"time"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"
)

// Counter keys. One counter per number series.
const (
	CounterInventory = "inventory"
	CounterCustomer  = "customer"
	CounterRental    = "rental"
)

type Prefixes struct {
	Inventory string
	Customer  string
	Rental    string
}

// NumberingService hands out human-readable numbers. Counters are advanced
// atomically by the repository; a failed increment is an error, never a
// silent restart at 1.
type NumberingService struct {
	counters repository.CounterRepository
	prefixes Prefixes
}

func NewNumberingService(counters repository.CounterRepository, prefixes Prefixes) *NumberingService {
	return &NumberingService{counters: counters, prefixes: prefixes}
}

// With returns a copy drawing from the given counters, typically the ones
// of an open transaction.
func (s *NumberingService) With(counters repository.CounterRepository) *NumberingService {
	return &NumberingService{counters: counters, prefixes: s.prefixes}
}

// NextNumber returns "{prefix}-{n:05d}" for the given counter.
func (s *NumberingService) NextNumber(ctx context.Context, counterKey, prefix string) (string, error) {
	n, err := s.counters.Next(ctx, counterKey)
	if err != nil {
		return "", fmt.Errorf("numbering %s: %w", counterKey, err)
	}
	if n < 1 {
		return "", fmt.Errorf("numbering %s: %w: counter returned %d", counterKey, domain.ErrPersistence, n)
	}
	return fmt.Sprintf("%s-%05d", prefix, n), nil
}

// NextRentalNumber returns "{prefix}-{YYYYMMDD}-{n:04d}". The counter is
// global, not per day.
func (s *NumberingService) NextRentalNumber(ctx context.Context, now time.Time) (string, error) {
	n, err := s.counters.Next(ctx, CounterRental)
	if err != nil {
		return "", fmt.Errorf("numbering %s: %w", CounterRental, err)
	}
	if n < 1 {
		return "", fmt.Errorf("numbering %s: %w: counter returned %d", CounterRental, domain.ErrPersistence, n)
	}
	return fmt.Sprintf("%s-%s-%04d", s.prefixes.Rental, now.Format("20060102"), n), nil
}

func (s *NumberingService) NextInventoryNumber(ctx context.Context) (string, error) {
	return s.NextNumber(ctx, CounterInventory, s.prefixes.Inventory)
}

func (s *NumberingService) NextCustomerNumber(ctx context.Context) (string, error) {
	return s.NextNumber(ctx, CounterCustomer, s.prefixes.Customer)
}
