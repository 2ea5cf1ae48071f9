package postgres

import (
	"context"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"
)

type auditRepository struct {
	db repository.DBTX
}

func NewAuditRepository(db repository.DBTX) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (id, action, entity, entity_id, details, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.Action, entry.Entity, entry.EntityID, entry.Details, entry.CreatedAt)
	if err != nil {
		return wrapErr("postgres.AuditRepository.Append", err)
	}
	return nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, entity, entityID string) ([]domain.AuditLog, error) {
	query := `SELECT id, action, entity, entity_id, details, created_at FROM audit_logs
	          WHERE entity = $1 AND entity_id = $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, entity, entityID)
	if err != nil {
		return nil, wrapErr("postgres.AuditRepository.ListByEntity", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.Action, &l.Entity, &l.EntityID, &l.Details, &l.CreatedAt); err != nil {
			return nil, wrapErr("postgres.AuditRepository.ListByEntity", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.AuditRepository.ListByEntity", err)
	}
	return logs, nil
}
