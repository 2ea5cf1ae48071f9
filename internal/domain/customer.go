package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID             uuid.UUID `json:"id"`
	CustomerNumber string    `json:"customer_number"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Company        string    `json:"company"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Street         string    `json:"street"`
	PostalCode     string    `json:"postal_code"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	Notes          string    `json:"notes"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DisplayName prefers the person's name and falls back to the company.
func (c *Customer) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Company
	}
	if c.Company != "" {
		return name + " (" + c.Company + ")"
	}
	return name
}

// HasActiveRentals reports whether any of the rentals still holds equipment.
func HasActiveRentals(rentals []Rental) bool {
	for i := range rentals {
		if !rentals[i].Status.IsTerminal() {
			return true
		}
	}
	return false
}
