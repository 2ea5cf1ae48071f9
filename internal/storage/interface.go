package storage

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrContentType      = errors.New("content type not allowed")
	ErrInvalidKey       = errors.New("invalid storage key")
	ErrSignatureMissing = errors.New("signature not found")
)

// SignatureKind tells handover and return signatures apart.
type SignatureKind string

const (
	SignatureHandover SignatureKind = "handover"
	SignatureReturn   SignatureKind = "return"
)

// SignatureStore keeps signature images captured in handover and return
// protocols. Rentals only hold the returned key.
type SignatureStore interface {
	// Save stores the image and returns its key
	Save(ctx context.Context, rentalID uuid.UUID, kind SignatureKind, data []byte) (string, error)

	// Open returns the stored image
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if a signature exists and returns its size
	Exists(ctx context.Context, key string) (exists bool, size int64, err error)

	// Delete removes a signature; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
