package postgres

import (
	"context"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"

	"github.com/google/uuid"
)

type lookupRepository struct {
	db repository.DBTX
}

func NewLookupRepository(db repository.DBTX) repository.LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) Create(ctx context.Context, l *domain.Lookup) error {
	query := `INSERT INTO lookups (id, kind, name, icon, color, sort_order, is_active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, l.ID, l.Kind, l.Name, l.Icon, l.Color, l.SortOrder, l.IsActive, l.CreatedAt)
	if err != nil {
		return wrapErr("postgres.LookupRepository.Create", err)
	}
	return nil
}

func (r *lookupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lookup, error) {
	query := `SELECT id, kind, name, icon, color, sort_order, is_active, created_at FROM lookups WHERE id = $1`
	l := &domain.Lookup{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.Kind, &l.Name, &l.Icon, &l.Color, &l.SortOrder, &l.IsActive, &l.CreatedAt)
	if err != nil {
		return nil, wrapErr("postgres.LookupRepository.GetByID", err)
	}
	return l, nil
}

func (r *lookupRepository) Update(ctx context.Context, l *domain.Lookup) error {
	query := `UPDATE lookups SET name=$1, icon=$2, color=$3, sort_order=$4, is_active=$5 WHERE id=$6`
	res, err := r.db.ExecContext(ctx, query, l.Name, l.Icon, l.Color, l.SortOrder, l.IsActive, l.ID)
	if err != nil {
		return wrapErr("postgres.LookupRepository.Update", err)
	}
	return requireAffected("postgres.LookupRepository.Update", res)
}

// Delete removes the entry; equipment referencing it keeps a null reference.
func (r *lookupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lookups WHERE id = $1`, id)
	if err != nil {
		return wrapErr("postgres.LookupRepository.Delete", err)
	}
	return requireAffected("postgres.LookupRepository.Delete", res)
}

func (r *lookupRepository) List(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	query := `SELECT id, kind, name, icon, color, sort_order, is_active, created_at FROM lookups
	          WHERE kind = $1 ORDER BY sort_order, name`
	rows, err := r.db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, wrapErr("postgres.LookupRepository.List", err)
	}
	defer rows.Close()

	var lookups []domain.Lookup
	for rows.Next() {
		var l domain.Lookup
		if err := rows.Scan(&l.ID, &l.Kind, &l.Name, &l.Icon, &l.Color, &l.SortOrder, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, wrapErr("postgres.LookupRepository.List", err)
		}
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.LookupRepository.List", err)
	}
	return lookups, nil
}
