package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LookupKind selects one of the flat classification tables.
type LookupKind string

const (
	LookupCategory  LookupKind = "category"
	LookupCondition LookupKind = "condition"
	LookupLocation  LookupKind = "location"
	LookupTag       LookupKind = "tag"
)

func ParseLookupKind(s string) (LookupKind, error) {
	switch k := LookupKind(s); k {
	case LookupCategory, LookupCondition, LookupLocation, LookupTag:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown lookup kind %q", ErrValidation, s)
	}
}

// Lookup is a category, condition, location or tag.
type Lookup struct {
	ID        uuid.UUID  `json:"id"`
	Kind      LookupKind `json:"kind"`
	Name      string     `json:"name"`
	Icon      string     `json:"icon"`
	Color     string     `json:"color"`
	SortOrder int        `json:"sort_order"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}
