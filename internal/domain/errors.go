package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input fails a business rule
	// (discount outside 0..100, quantity below 1, end before start, ...).
	ErrValidation = errors.New("validation error")

	// ErrInvalidTransition is returned when a lifecycle operation is invoked
	// from a status that does not permit it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPersistence wraps every storage failure that is not a plain miss.
	ErrPersistence = errors.New("persistence error")

	ErrConflict             = errors.New("conflict")
	ErrEquipmentUnavailable = errors.New("equipment unavailable")
	ErrLocked               = errors.New("app is locked")
)

// TransitionError carries the operation and the status it was attempted from.
type TransitionError struct {
	Op   string
	From RentalStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s a rental in status %q", ErrInvalidTransition, e.Op, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Validationf builds an error that matches ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
