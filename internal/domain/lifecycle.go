package domain

import (
	"strings"
	"time"
)

// ===============================
// Guards
// ===============================

func CanStart(current RentalStatus) error {
	if current != RentalStatusReserved {
		return &TransitionError{Op: "start", From: current}
	}
	return nil
}

func CanCancel(current RentalStatus) error {
	if current != RentalStatusReserved {
		return &TransitionError{Op: "cancel", From: current}
	}
	return nil
}

// CanComplete accepts the stored active status and the derived overdue one,
// so callers may pass either the stored or the display status.
func CanComplete(current RentalStatus) error {
	if current != RentalStatusActive && current != RentalStatusOverdue {
		return &TransitionError{Op: "complete", From: current}
	}
	return nil
}

// CanEdit guards item and pricing changes.
func CanEdit(current RentalStatus) error {
	if current.IsTerminal() {
		return &TransitionError{Op: "edit", From: current}
	}
	return nil
}

// ===============================
// Transitions
// ===============================

// ReturnProtocol is what the operator supplies when equipment comes back.
type ReturnProtocol struct {
	DepositReturned bool
	Notes           string
}

// StartRental moves a reserved rental to active and holds its equipment.
// Nothing is modified when an error is returned.
func StartRental(r *Rental, equipment EquipmentSet, now time.Time) error {
	if err := CanStart(r.Status); err != nil {
		return err
	}
	if err := equipment.covers(r); err != nil {
		return err
	}

	r.Status = RentalStatusActive
	r.ActualStartDate = &now
	r.UpdatedAt = now
	equipment.setAvailability(r, false, now)
	return nil
}

// CancelRental moves a reserved rental to cancelled and frees its equipment.
func CancelRental(r *Rental, equipment EquipmentSet, now time.Time) error {
	if err := CanCancel(r.Status); err != nil {
		return err
	}
	if err := equipment.covers(r); err != nil {
		return err
	}

	r.Status = RentalStatusCancelled
	r.UpdatedAt = now
	equipment.setAvailability(r, true, now)
	return nil
}

// CompleteRental moves an active (or overdue) rental to returned. Every
// referenced unit is freed, even if another open rental still lists it.
func CompleteRental(r *Rental, equipment EquipmentSet, ret ReturnProtocol, now time.Time) error {
	if err := CanComplete(r.Status); err != nil {
		return err
	}
	if err := equipment.covers(r); err != nil {
		return err
	}

	r.Status = RentalStatusReturned
	r.ActualEndDate = &now
	r.DepositReturned = ret.DepositReturned
	r.Notes = appendNote(r.Notes, ret.Notes)
	r.UpdatedAt = now
	equipment.setAvailability(r, true, now)
	return nil
}

func (s EquipmentSet) covers(r *Rental) error {
	for _, id := range r.EquipmentIDs() {
		if _, ok := s[id]; !ok {
			return Validationf("equipment %s of rental %s is not loaded", id, r.RentalNumber)
		}
	}
	return nil
}

func (s EquipmentSet) setAvailability(r *Rental, available bool, now time.Time) {
	for _, id := range r.EquipmentIDs() {
		e := s[id]
		e.IsAvailable = available
		e.UpdatedAt = now
	}
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
