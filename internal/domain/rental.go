package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalStatus is the persisted lifecycle state of a rental.
// Overdue is never stored; see DisplayStatus.
type RentalStatus string

const (
	RentalStatusReserved  RentalStatus = "reserved"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusOverdue   RentalStatus = "overdue"
	RentalStatusReturned  RentalStatus = "returned"
	RentalStatusCancelled RentalStatus = "cancelled"
)

// ParseRentalStatus accepts only the values that may be stored.
func ParseRentalStatus(s string) (RentalStatus, error) {
	switch st := RentalStatus(s); st {
	case RentalStatusReserved, RentalStatusActive, RentalStatusReturned, RentalStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown rental status %q", ErrValidation, s)
	}
}

// IsTerminal reports whether the status can never change again.
func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusReturned || s == RentalStatusCancelled
}

type Rental struct {
	ID                         uuid.UUID       `json:"id"`
	RentalNumber               string          `json:"rental_number"`
	CustomerID                 *uuid.UUID      `json:"customer_id,omitempty"`
	PlannedStartDate           time.Time       `json:"planned_start_date"`
	PlannedEndDate             time.Time       `json:"planned_end_date"`
	ActualStartDate            *time.Time      `json:"actual_start_date,omitempty"`
	ActualEndDate              *time.Time      `json:"actual_end_date,omitempty"`
	Status                     RentalStatus    `json:"status"`
	Items                      []RentalItem    `json:"items"`
	TotalPrice                 decimal.Decimal `json:"total_price"`
	DepositAmount              decimal.Decimal `json:"deposit_amount"`
	DepositReceived            bool            `json:"deposit_received"`
	DepositReturned            bool            `json:"deposit_returned"`
	DiscountPercent            decimal.Decimal `json:"discount_percent"`
	AdditionalCosts            decimal.Decimal `json:"additional_costs"`
	AdditionalCostsDescription string          `json:"additional_costs_description"`
	// Handover protocol, captured when the rental starts.
	HandoverNotes        string     `json:"handover_notes"`
	HandoverSignatureKey string     `json:"handover_signature_key,omitempty"`
	HandoverDate         *time.Time `json:"handover_date,omitempty"`
	// Return protocol, captured when the rental completes.
	ReturnNotes        string     `json:"return_notes"`
	ReturnSignatureKey string     `json:"return_signature_key,omitempty"`
	ReturnDate         *time.Time `json:"return_date,omitempty"`
	Purpose            string     `json:"purpose"`
	EventLocation      string     `json:"event_location"`
	Notes              string     `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// EquipmentIDs returns the distinct equipment referenced by the rental's items.
// Items whose equipment has been deleted are skipped.
func (r *Rental) EquipmentIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(r.Items))
	ids := make([]uuid.UUID, 0, len(r.Items))
	for _, it := range r.Items {
		if it.EquipmentID == nil {
			continue
		}
		if _, ok := seen[*it.EquipmentID]; ok {
			continue
		}
		seen[*it.EquipmentID] = struct{}{}
		ids = append(ids, *it.EquipmentID)
	}
	return ids
}

type RentalItem struct {
	ID                uuid.UUID       `json:"id"`
	RentalID          uuid.UUID       `json:"rental_id"`
	EquipmentID       *uuid.UUID      `json:"equipment_id,omitempty"`
	Quantity          int             `json:"quantity"`
	DailyRate         decimal.Decimal `json:"daily_rate"` // snapshot taken at creation
	Days              int             `json:"days"`
	HandoverCondition string          `json:"handover_condition"`
	ReturnCondition   string          `json:"return_condition"`
	HasDamage         bool            `json:"has_damage"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TotalPrice is quantity × daily rate × days.
func (it RentalItem) TotalPrice() decimal.Decimal {
	return it.DailyRate.
		Mul(decimal.NewFromInt(int64(it.Quantity))).
		Mul(decimal.NewFromInt(int64(it.Days)))
}

type RentalFilter struct {
	Status     *RentalStatus
	CustomerID *uuid.UUID
	// OnlyOpen limits the result to reserved and active rentals.
	OnlyOpen bool
}

// RentalView is a rental together with the values derived at read time.
type RentalView struct {
	Rental        Rental       `json:"rental"`
	DisplayStatus RentalStatus `json:"display_status"`
	DaysOverdue   int          `json:"days_overdue"`
	NumberOfDays  int          `json:"number_of_days"`
}

func NewRentalView(r Rental, now time.Time) RentalView {
	return RentalView{
		Rental:        r,
		DisplayStatus: DisplayStatus(&r, now),
		DaysOverdue:   DaysOverdue(&r, now),
		NumberOfDays:  NumberOfDays(&r),
	}
}
