package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// LocalSignatureStore implements SignatureStore on the local filesystem
type LocalSignatureStore struct {
	dir          string
	maxBytes     int64
	allowedTypes []string
}

var _ SignatureStore = (*LocalSignatureStore)(nil)

// NewLocalSignatureStore creates the root directory if needed
func NewLocalSignatureStore(cfg Config) (*LocalSignatureStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create signature directory: %w", err)
	}
	return &LocalSignatureStore{
		dir:          cfg.Dir,
		maxBytes:     cfg.MaxFileSizeKB * 1024,
		allowedTypes: cfg.AllowedTypes,
	}, nil
}

// Save writes the image under rentals/<rental id>/<kind>-<random>.<ext>
func (s *LocalSignatureStore) Save(ctx context.Context, rentalID uuid.UUID, kind SignatureKind, data []byte) (string, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}
	contentType := http.DetectContentType(data)
	if len(s.allowedTypes) > 0 && !slices.Contains(s.allowedTypes, contentType) {
		return "", fmt.Errorf("%w: %s", ErrContentType, contentType)
	}

	key := fmt.Sprintf("rentals/%s/%s-%s%s", rentalID, kind, uuid.NewString(), extensionFor(contentType))
	fullPath, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := writeFile(fullPath, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return key, nil
}

// writeFile stages the content in a temporary file next to path and renames
// it into place, so a failed write never leaves a partial file behind.
func writeFile(path string, r io.Reader) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

func (s *LocalSignatureStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSignatureMissing, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalSignatureStore) Exists(ctx context.Context, key string) (bool, int64, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return false, 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (s *LocalSignatureStore) Delete(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// path resolves a key inside the root and refuses anything that escapes it
func (s *LocalSignatureStore) path(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	full := filepath.Join(s.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.dir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return full, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	default:
		return ".bin"
	}
}
