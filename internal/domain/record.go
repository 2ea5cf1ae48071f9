package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record flattens the equipment into string key-value pairs for exporters.
func (e *Equipment) Record() map[string]string {
	return map[string]string{
		"id":               e.ID.String(),
		"inventory_number": e.InventoryNumber,
		"serial_number":    e.SerialNumber,
		"name":             e.Name,
		"manufacturer":     e.Manufacturer,
		"model":            e.Model,
		"description":      e.Description,
		"category_id":      optionalID(e.CategoryID),
		"condition_id":     optionalID(e.ConditionID),
		"location_id":      optionalID(e.LocationID),
		"daily_rate":       optionalDecimal(e.DailyRate),
		"purchase_price":   optionalDecimal(e.PurchasePrice),
		"purchase_date":    optionalDate(e.PurchaseDate),
		"is_available":     strconv.FormatBool(e.IsAvailable),
		"is_active":        strconv.FormatBool(e.IsActive),
		"created_at":       e.CreatedAt.Format(time.RFC3339),
		"updated_at":       e.UpdatedAt.Format(time.RFC3339),
	}
}

func (l *Lookup) Record() map[string]string {
	return map[string]string{
		"id":         l.ID.String(),
		"kind":       string(l.Kind),
		"name":       l.Name,
		"icon":       l.Icon,
		"color":      l.Color,
		"sort_order": strconv.Itoa(l.SortOrder),
		"is_active":  strconv.FormatBool(l.IsActive),
		"created_at": l.CreatedAt.Format(time.RFC3339),
	}
}

func (c *Customer) Record() map[string]string {
	return map[string]string{
		"id":              c.ID.String(),
		"customer_number": c.CustomerNumber,
		"first_name":      c.FirstName,
		"last_name":       c.LastName,
		"company":         c.Company,
		"email":           c.Email,
		"phone":           c.Phone,
		"street":          c.Street,
		"postal_code":     c.PostalCode,
		"city":            c.City,
		"country":         c.Country,
		"notes":           c.Notes,
		"is_active":       strconv.FormatBool(c.IsActive),
		"created_at":      c.CreatedAt.Format(time.RFC3339),
	}
}

// Record flattens the rental header; items are counted, not inlined.
func (r *Rental) Record() map[string]string {
	return map[string]string{
		"id":                 r.ID.String(),
		"rental_number":      r.RentalNumber,
		"customer_id":        optionalID(r.CustomerID),
		"status":             string(r.Status),
		"planned_start_date": r.PlannedStartDate.Format(time.DateOnly),
		"planned_end_date":   r.PlannedEndDate.Format(time.DateOnly),
		"actual_start_date":  optionalDate(r.ActualStartDate),
		"actual_end_date":    optionalDate(r.ActualEndDate),
		"item_count":         strconv.Itoa(len(r.Items)),
		"total_price":        r.TotalPrice.StringFixed(2),
		"discount_percent":   r.DiscountPercent.String(),
		"additional_costs":   r.AdditionalCosts.StringFixed(2),
		"deposit_amount":     r.DepositAmount.StringFixed(2),
		"deposit_received":   strconv.FormatBool(r.DepositReceived),
		"deposit_returned":   strconv.FormatBool(r.DepositReturned),
		"purpose":            r.Purpose,
		"event_location":     r.EventLocation,
		"notes":              r.Notes,
	}
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func optionalDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
