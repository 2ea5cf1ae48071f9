package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type QRKind string

const (
	QRKindEquipment QRKind = "equipment"
	QRKindRental    QRKind = "rental"
)

// QRTarget is a parsed QR payload. Equipment payloads carry either an ID or
// an inventory number; rental payloads always carry an ID.
type QRTarget struct {
	Scheme          string
	Kind            QRKind
	ID              *uuid.UUID
	InventoryNumber string
}

func EquipmentQRPayload(scheme string, id uuid.UUID) string {
	return fmt.Sprintf("%s://%s/%s", scheme, QRKindEquipment, id)
}

func EquipmentInventoryQRPayload(scheme, inventoryNumber string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, QRKindEquipment, inventoryNumber)
}

func RentalQRPayload(scheme string, id uuid.UUID) string {
	return fmt.Sprintf("%s://%s/%s", scheme, QRKindRental, id)
}

// ParseQRPayload reverses the payload builders above.
func ParseQRPayload(payload string) (QRTarget, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(payload), "://")
	if !ok || scheme == "" {
		return QRTarget{}, Validationf("qr payload %q has no scheme", payload)
	}
	kind, value, ok := strings.Cut(rest, "/")
	if !ok || value == "" || strings.Contains(value, "/") {
		return QRTarget{}, Validationf("qr payload %q has no identifier", payload)
	}

	t := QRTarget{Scheme: scheme, Kind: QRKind(kind)}
	switch t.Kind {
	case QRKindEquipment:
		if id, err := uuid.Parse(value); err == nil {
			t.ID = &id
		} else {
			t.InventoryNumber = value
		}
	case QRKindRental:
		id, err := uuid.Parse(value)
		if err != nil {
			return QRTarget{}, Validationf("qr payload %q: rental id is not a uuid", payload)
		}
		t.ID = &id
	default:
		return QRTarget{}, Validationf("qr payload %q: unknown kind %q", payload, kind)
	}
	return t, nil
}
