package postgres

import (
	"context"

	"mediarent-backend/internal/repository"
)

type settingsRepository struct {
	db repository.DBTX
}

func NewSettingsRepository(db repository.DBTX) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		return "", wrapErr("postgres.SettingsRepository.Get", err)
	}
	return value, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO settings (key, value) VALUES ($1, $2)
	          ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return wrapErr("postgres.SettingsRepository.Set", err)
	}
	return nil
}
