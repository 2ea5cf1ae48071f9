package postgres

import (
	"context"
	"fmt"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const rentalColumns = `id, rental_number, customer_id, planned_start_date, planned_end_date,
	actual_start_date, actual_end_date, status, total_price, deposit_amount, deposit_received,
	deposit_returned, discount_percent, additional_costs, additional_costs_description,
	handover_notes, handover_signature_key, handover_date, return_notes, return_signature_key,
	return_date, purpose, event_location, notes, created_at, updated_at`

const rentalItemColumns = `id, rental_id, equipment_id, quantity, daily_rate, days,
	handover_condition, return_condition, has_damage, created_at`

type rentalRepository struct {
	db repository.DBTX
}

func NewRentalRepository(db repository.DBTX) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	var status string
	err := row.Scan(&rt.ID, &rt.RentalNumber, &rt.CustomerID, &rt.PlannedStartDate, &rt.PlannedEndDate,
		&rt.ActualStartDate, &rt.ActualEndDate, &status, &rt.TotalPrice, &rt.DepositAmount, &rt.DepositReceived,
		&rt.DepositReturned, &rt.DiscountPercent, &rt.AdditionalCosts, &rt.AdditionalCostsDescription,
		&rt.HandoverNotes, &rt.HandoverSignatureKey, &rt.HandoverDate, &rt.ReturnNotes, &rt.ReturnSignatureKey,
		&rt.ReturnDate, &rt.Purpose, &rt.EventLocation, &rt.Notes, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// a stored row is corrupt, not a bad request, so ErrValidation is not kept
	if rt.Status, err = domain.ParseRentalStatus(status); err != nil {
		return nil, fmt.Errorf("rental %s has unknown status %q", rt.ID, status)
	}
	return rt, nil
}

func scanRentalItem(row rowScanner) (*domain.RentalItem, error) {
	it := &domain.RentalItem{}
	err := row.Scan(&it.ID, &it.RentalID, &it.EquipmentID, &it.Quantity, &it.DailyRate, &it.Days,
		&it.HandoverCondition, &it.ReturnCondition, &it.HasDamage, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	query := `INSERT INTO rentals (` + rentalColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
	                  $21, $22, $23, $24, $25, $26)`
	_, err := r.db.ExecContext(ctx, query, rt.ID, rt.RentalNumber, rt.CustomerID, rt.PlannedStartDate, rt.PlannedEndDate,
		rt.ActualStartDate, rt.ActualEndDate, rt.Status, rt.TotalPrice, rt.DepositAmount, rt.DepositReceived,
		rt.DepositReturned, rt.DiscountPercent, rt.AdditionalCosts, rt.AdditionalCostsDescription,
		rt.HandoverNotes, rt.HandoverSignatureKey, rt.HandoverDate, rt.ReturnNotes, rt.ReturnSignatureKey,
		rt.ReturnDate, rt.Purpose, rt.EventLocation, rt.Notes, rt.CreatedAt, rt.UpdatedAt)
	if err != nil {
		return wrapErr("postgres.RentalRepository.Create", err)
	}

	for i := range rt.Items {
		if err := r.AddItem(ctx, &rt.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	return r.get(ctx, "postgres.RentalRepository.GetByID", `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id)
}

func (r *rentalRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	return r.get(ctx, "postgres.RentalRepository.GetForUpdate", `SELECT `+rentalColumns+` FROM rentals WHERE id = $1 FOR UPDATE`, id)
}

func (r *rentalRepository) get(ctx context.Context, op, query string, id uuid.UUID) (*domain.Rental, error) {
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	items, err := r.itemsFor(ctx, []uuid.UUID{rt.ID})
	if err != nil {
		return nil, wrapErr(op, err)
	}
	rt.Items = items[rt.ID]
	return rt, nil
}

// Update writes every mutable column of the rental row. Items are written
// through AddItem and UpdateItemConditions.
func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET customer_id=$1, planned_start_date=$2, planned_end_date=$3, actual_start_date=$4,
	          actual_end_date=$5, status=$6, total_price=$7, deposit_amount=$8, deposit_received=$9, deposit_returned=$10,
	          discount_percent=$11, additional_costs=$12, additional_costs_description=$13, handover_notes=$14,
	          handover_signature_key=$15, handover_date=$16, return_notes=$17, return_signature_key=$18, return_date=$19,
	          purpose=$20, event_location=$21, notes=$22, updated_at=$23 WHERE id=$24`
	res, err := r.db.ExecContext(ctx, query, rt.CustomerID, rt.PlannedStartDate, rt.PlannedEndDate, rt.ActualStartDate,
		rt.ActualEndDate, rt.Status, rt.TotalPrice, rt.DepositAmount, rt.DepositReceived, rt.DepositReturned,
		rt.DiscountPercent, rt.AdditionalCosts, rt.AdditionalCostsDescription, rt.HandoverNotes,
		rt.HandoverSignatureKey, rt.HandoverDate, rt.ReturnNotes, rt.ReturnSignatureKey, rt.ReturnDate,
		rt.Purpose, rt.EventLocation, rt.Notes, rt.UpdatedAt, rt.ID)
	if err != nil {
		return wrapErr("postgres.RentalRepository.Update", err)
	}
	return requireAffected("postgres.RentalRepository.Update", res)
}

func (r *rentalRepository) AddItem(ctx context.Context, it *domain.RentalItem) error {
	query := `INSERT INTO rental_items (` + rentalItemColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query, it.ID, it.RentalID, it.EquipmentID, it.Quantity, it.DailyRate, it.Days,
		it.HandoverCondition, it.ReturnCondition, it.HasDamage, it.CreatedAt)
	if err != nil {
		return wrapErr("postgres.RentalRepository.AddItem", err)
	}
	return nil
}

func (r *rentalRepository) UpdateItemConditions(ctx context.Context, items []domain.RentalItem) error {
	query := `UPDATE rental_items SET handover_condition=$1, return_condition=$2, has_damage=$3 WHERE id=$4`
	for _, it := range items {
		res, err := r.db.ExecContext(ctx, query, it.HandoverCondition, it.ReturnCondition, it.HasDamage, it.ID)
		if err != nil {
			return wrapErr("postgres.RentalRepository.UpdateItemConditions", err)
		}
		if err := requireAffected("postgres.RentalRepository.UpdateItemConditions", res); err != nil {
			return err
		}
	}
	return nil
}

func (r *rentalRepository) List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE 1=1`
	var args []any

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.OnlyOpen {
		query += " AND status IN ('reserved', 'active')"
	}
	query += " ORDER BY planned_start_date DESC, rental_number DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("postgres.RentalRepository.List", err)
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, wrapErr("postgres.RentalRepository.List", err)
		}
		rentals = append(rentals, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.RentalRepository.List", err)
	}
	if len(rentals) == 0 {
		return rentals, nil
	}

	ids := make([]uuid.UUID, len(rentals))
	for i := range rentals {
		ids[i] = rentals[i].ID
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, wrapErr("postgres.RentalRepository.List", err)
	}
	for i := range rentals {
		rentals[i].Items = items[rentals[i].ID]
	}
	return rentals, nil
}

func (r *rentalRepository) itemsFor(ctx context.Context, rentalIDs []uuid.UUID) (map[uuid.UUID][]domain.RentalItem, error) {
	query := `SELECT ` + rentalItemColumns + ` FROM rental_items WHERE rental_id = ANY($1::uuid[]) ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(rentalIDs)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.RentalItem, len(rentalIDs))
	for rows.Next() {
		it, err := scanRentalItem(rows)
		if err != nil {
			return nil, err
		}
		out[it.RentalID] = append(out[it.RentalID], *it)
	}
	return out, rows.Err()
}

// Delete removes the rental; items cascade.
func (r *rentalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return wrapErr("postgres.RentalRepository.Delete", err)
	}
	return requireAffected("postgres.RentalRepository.Delete", res)
}

func (r *rentalRepository) HeldEquipmentIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT i.equipment_id FROM rental_items i
	          JOIN rentals r ON r.id = i.rental_id
	          WHERE r.status IN ('reserved', 'active') AND i.equipment_id IS NOT NULL
	          ORDER BY i.equipment_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("postgres.RentalRepository.HeldEquipmentIDs", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("postgres.RentalRepository.HeldEquipmentIDs", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.RentalRepository.HeldEquipmentIDs", err)
	}
	return ids, nil
}
