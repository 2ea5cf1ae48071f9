package postgres

import (
	"context"
	"fmt"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"
)

type counterRepository struct {
	db repository.DBTX
}

func NewCounterRepository(db repository.DBTX) repository.CounterRepository {
	return &counterRepository{db: db}
}

// Next increments in a single statement so concurrent callers never see the same value.
func (r *counterRepository) Next(ctx context.Context, key string) (int64, error) {
	query := `INSERT INTO counters (key, value) VALUES ($1, 1)
	          ON CONFLICT (key) DO UPDATE SET value = counters.value + 1
	          RETURNING value`
	var value int64
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		// a missing row here is a storage fault, not a lookup miss
		return 0, fmt.Errorf("postgres.CounterRepository.Next: %w: %w", domain.ErrPersistence, err)
	}
	return value, nil
}
