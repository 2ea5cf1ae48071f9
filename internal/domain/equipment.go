package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Equipment struct {
	ID              uuid.UUID           `json:"id"`
	InventoryNumber string              `json:"inventory_number"`
	SerialNumber    string              `json:"serial_number"`
	Name            string              `json:"name"`
	Manufacturer    string              `json:"manufacturer"`
	Model           string              `json:"model"`
	Description     string              `json:"description"`
	CategoryID      *uuid.UUID          `json:"category_id,omitempty"`
	ConditionID     *uuid.UUID          `json:"condition_id,omitempty"`
	LocationID      *uuid.UUID          `json:"location_id,omitempty"`
	DailyRate       decimal.NullDecimal `json:"daily_rate"`
	PurchasePrice   decimal.NullDecimal `json:"purchase_price"`
	PurchaseDate    *time.Time          `json:"purchase_date,omitempty"`
	Notes           string              `json:"notes"`
	// IsAvailable is owned by the rental lifecycle; nothing else writes it.
	IsAvailable bool      `json:"is_available"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Rentable reports whether the unit can be put on a new rental right now.
func (e *Equipment) Rentable() bool {
	return e.IsActive && e.IsAvailable
}

// EquipmentSet holds the equipment referenced by a rental's items, keyed by ID.
type EquipmentSet map[uuid.UUID]*Equipment

func NewEquipmentSet(items ...*Equipment) EquipmentSet {
	set := make(EquipmentSet, len(items))
	for _, e := range items {
		set[e.ID] = e
	}
	return set
}

type EquipmentFilter struct {
	OnlyActive    bool
	OnlyAvailable bool
	CategoryID    *uuid.UUID
	Search        string
}

type MaintenanceRecord struct {
	ID          uuid.UUID           `json:"id"`
	EquipmentID uuid.UUID           `json:"equipment_id"`
	PerformedAt time.Time           `json:"performed_at"`
	Description string              `json:"description"`
	Cost        decimal.NullDecimal `json:"cost"`
	PerformedBy string              `json:"performed_by"`
	CreatedAt   time.Time           `json:"created_at"`
}

type DamageReport struct {
	ID          uuid.UUID  `json:"id"`
	EquipmentID uuid.UUID  `json:"equipment_id"`
	RentalID    *uuid.UUID `json:"rental_id,omitempty"`
	Description string     `json:"description"`
	ReportedAt  time.Time  `json:"reported_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
