package memory

import (
	"context"
	"fmt"
	"sync"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"
)

type SettingsRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ repository.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{values: make(map[string]string)}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return "", fmt.Errorf("memory.SettingsRepository.Get: %w", domain.ErrNotFound)
	}
	return v, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}
