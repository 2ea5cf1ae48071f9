package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const equipmentColumns = `id, inventory_number, serial_number, name, manufacturer, model, description,
	category_id, condition_id, location_id, daily_rate, purchase_price, purchase_date, notes,
	is_available, is_active, created_at, updated_at`

type equipmentRepository struct {
	db repository.DBTX
}

func NewEquipmentRepository(db repository.DBTX) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

func scanEquipment(row rowScanner) (*domain.Equipment, error) {
	e := &domain.Equipment{}
	err := row.Scan(&e.ID, &e.InventoryNumber, &e.SerialNumber, &e.Name, &e.Manufacturer, &e.Model, &e.Description,
		&e.CategoryID, &e.ConditionID, &e.LocationID, &e.DailyRate, &e.PurchasePrice, &e.PurchaseDate, &e.Notes,
		&e.IsAvailable, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *equipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	query := `INSERT INTO equipment (` + equipmentColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.InventoryNumber, e.SerialNumber, e.Name, e.Manufacturer, e.Model, e.Description,
		e.CategoryID, e.ConditionID, e.LocationID, e.DailyRate, e.PurchasePrice, e.PurchaseDate, e.Notes,
		e.IsAvailable, e.IsActive, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return wrapErr("postgres.EquipmentRepository.Create", err)
	}
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`
	e, err := scanEquipment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr("postgres.EquipmentRepository.GetByID", err)
	}
	return e, nil
}

func (r *equipmentRepository) GetByInventoryNumber(ctx context.Context, number string) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE inventory_number = $1`
	e, err := scanEquipment(r.db.QueryRowContext(ctx, query, number))
	if err != nil {
		return nil, wrapErr("postgres.EquipmentRepository.GetByInventoryNumber", err)
	}
	return e, nil
}

func (r *equipmentRepository) Update(ctx context.Context, e *domain.Equipment) error {
	query := `UPDATE equipment SET serial_number=$1, name=$2, manufacturer=$3, model=$4, description=$5,
	          category_id=$6, condition_id=$7, location_id=$8, daily_rate=$9, purchase_price=$10, purchase_date=$11,
	          notes=$12, updated_at=$13 WHERE id=$14`
	res, err := r.db.ExecContext(ctx, query, e.SerialNumber, e.Name, e.Manufacturer, e.Model, e.Description,
		e.CategoryID, e.ConditionID, e.LocationID, e.DailyRate, e.PurchasePrice, e.PurchaseDate,
		e.Notes, e.UpdatedAt, e.ID)
	if err != nil {
		return wrapErr("postgres.EquipmentRepository.Update", err)
	}
	return requireAffected("postgres.EquipmentRepository.Update", res)
}

func (r *equipmentRepository) List(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE 1=1`
	var args []any

	if filter.OnlyActive {
		query += " AND is_active = TRUE"
	}
	if filter.OnlyAvailable {
		query += " AND is_available = TRUE"
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR inventory_number ILIKE $%d OR serial_number ILIKE $%d)", len(args), len(args), len(args))
	}
	query += " ORDER BY inventory_number"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("postgres.EquipmentRepository.List", err)
	}
	defer rows.Close()

	var items []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, wrapErr("postgres.EquipmentRepository.List", err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.EquipmentRepository.List", err)
	}
	return items, nil
}

func (r *equipmentRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) (domain.EquipmentSet, error) {
	set := make(domain.EquipmentSet, len(ids))
	if len(ids) == 0 {
		return set, nil
	}

	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, wrapErr("postgres.EquipmentRepository.LockByIDs", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, wrapErr("postgres.EquipmentRepository.LockByIDs", err)
		}
		set[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.EquipmentRepository.LockByIDs", err)
	}
	return set, nil
}

// UpdateAvailability persists is_available for every unit in the set,
// one statement per flag value.
func (r *equipmentRepository) UpdateAvailability(ctx context.Context, set domain.EquipmentSet) error {
	var free, held []string
	var at time.Time
	for id, e := range set {
		if e.IsAvailable {
			free = append(free, id.String())
		} else {
			held = append(held, id.String())
		}
		if e.UpdatedAt.After(at) {
			at = e.UpdatedAt
		}
	}

	query := `UPDATE equipment SET is_available = $1, updated_at = $2 WHERE id = ANY($3::uuid[])`
	for _, group := range []struct {
		available bool
		ids       []string
	}{{true, free}, {false, held}} {
		if len(group.ids) == 0 {
			continue
		}
		slices.Sort(group.ids)
		if _, err := r.db.ExecContext(ctx, query, group.available, at, pq.Array(group.ids)); err != nil {
			return wrapErr("postgres.EquipmentRepository.UpdateAvailability", err)
		}
	}
	return nil
}

func (r *equipmentRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error {
	query := `UPDATE equipment SET is_active = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, active, at, id)
	if err != nil {
		return wrapErr("postgres.EquipmentRepository.SetActive", err)
	}
	return requireAffected("postgres.EquipmentRepository.SetActive", res)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
