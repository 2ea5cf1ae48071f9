package domain

import "time"

type AuditAction string

const (
	AuditRentalCreated         AuditAction = "rental_created"
	AuditRentalItemAdded       AuditAction = "rental_item_added"
	AuditRentalPricingUpdated  AuditAction = "rental_pricing_updated"
	AuditRentalDepositReceived AuditAction = "rental_deposit_received"
	AuditRentalStarted         AuditAction = "rental_started"
	AuditRentalCancelled       AuditAction = "rental_cancelled"
	AuditRentalCompleted       AuditAction = "rental_completed"
	AuditRentalDeleted         AuditAction = "rental_deleted"
	AuditEquipmentCreated      AuditAction = "equipment_created"
	AuditEquipmentUpdated      AuditAction = "equipment_updated"
	AuditEquipmentRetired      AuditAction = "equipment_retired"
	AuditAvailabilityRepaired  AuditAction = "equipment_availability_repaired"
	AuditCustomerCreated       AuditAction = "customer_created"
	AuditCustomerUpdated       AuditAction = "customer_updated"
	AuditCustomerDeleted       AuditAction = "customer_deleted"
)

// AuditLog is an append-only history row. ID is a ULID so rows sort by time.
type AuditLog struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	Entity    string      `json:"entity"`
	EntityID  string      `json:"entity_id"`
	Details   string      `json:"details"`
	CreatedAt time.Time   `json:"created_at"`
}
