package postgres

import (
	"context"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"

	"github.com/google/uuid"
)

type historyRepository struct {
	db repository.DBTX
}

func NewHistoryRepository(db repository.DBTX) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) AddMaintenance(ctx context.Context, m *domain.MaintenanceRecord) error {
	query := `INSERT INTO maintenance_records (id, equipment_id, performed_at, description, cost, performed_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.EquipmentID, m.PerformedAt, m.Description, m.Cost, m.PerformedBy, m.CreatedAt)
	if err != nil {
		return wrapErr("postgres.HistoryRepository.AddMaintenance", err)
	}
	return nil
}

func (r *historyRepository) AddDamage(ctx context.Context, d *domain.DamageReport) error {
	query := `INSERT INTO damage_reports (id, equipment_id, rental_id, description, reported_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, d.ID, d.EquipmentID, d.RentalID, d.Description, d.ReportedAt, d.CreatedAt)
	if err != nil {
		return wrapErr("postgres.HistoryRepository.AddDamage", err)
	}
	return nil
}

func (r *historyRepository) ListMaintenance(ctx context.Context, equipmentID uuid.UUID) ([]domain.MaintenanceRecord, error) {
	query := `SELECT id, equipment_id, performed_at, description, cost, performed_by, created_at
	          FROM maintenance_records WHERE equipment_id = $1 ORDER BY performed_at DESC`
	rows, err := r.db.QueryContext(ctx, query, equipmentID)
	if err != nil {
		return nil, wrapErr("postgres.HistoryRepository.ListMaintenance", err)
	}
	defer rows.Close()

	var records []domain.MaintenanceRecord
	for rows.Next() {
		var m domain.MaintenanceRecord
		if err := rows.Scan(&m.ID, &m.EquipmentID, &m.PerformedAt, &m.Description, &m.Cost, &m.PerformedBy, &m.CreatedAt); err != nil {
			return nil, wrapErr("postgres.HistoryRepository.ListMaintenance", err)
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.HistoryRepository.ListMaintenance", err)
	}
	return records, nil
}

func (r *historyRepository) ListDamage(ctx context.Context, equipmentID uuid.UUID) ([]domain.DamageReport, error) {
	query := `SELECT id, equipment_id, rental_id, description, reported_at, created_at
	          FROM damage_reports WHERE equipment_id = $1 ORDER BY reported_at DESC`
	rows, err := r.db.QueryContext(ctx, query, equipmentID)
	if err != nil {
		return nil, wrapErr("postgres.HistoryRepository.ListDamage", err)
	}
	defer rows.Close()

	var reports []domain.DamageReport
	for rows.Next() {
		var d domain.DamageReport
		if err := rows.Scan(&d.ID, &d.EquipmentID, &d.RentalID, &d.Description, &d.ReportedAt, &d.CreatedAt); err != nil {
			return nil, wrapErr("postgres.HistoryRepository.ListDamage", err)
		}
		reports = append(reports, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.HistoryRepository.ListDamage", err)
	}
	return reports, nil
}
