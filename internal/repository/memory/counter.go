// Package memory holds in-process repository implementations that serve as
// test doubles for the service and security tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"
)

type CounterRepository struct {
	mu     sync.Mutex
	values map[string]int64
	// FailWith makes every Next call fail; used to exercise error paths.
	FailWith error
}

var _ repository.CounterRepository = (*CounterRepository)(nil)

func NewCounterRepository() *CounterRepository {
	return &CounterRepository{values: make(map[string]int64)}
}

func (r *CounterRepository) Next(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("memory.CounterRepository.Next: %w: %w", domain.ErrPersistence, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return 0, fmt.Errorf("memory.CounterRepository.Next: %w: %w", domain.ErrPersistence, r.FailWith)
	}
	r.values[key]++
	return r.values[key], nil
}

// Value returns the current counter without incrementing it.
func (r *CounterRepository) Value(key string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[key]
}
