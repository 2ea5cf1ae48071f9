package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG header is enough for content sniffing
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func newStore(t *testing.T) *LocalSignatureStore {
	t.Helper()
	s, err := NewLocalSignatureStore(Config{Dir: t.TempDir(), MaxFileSizeKB: 1, AllowedTypes: []string{"image/png"}})
	require.NoError(t, err)
	return s
}

func TestLocalSignatureStore_SaveOpenDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	rentalID := uuid.New()

	key, err := s.Save(ctx, rentalID, SignatureHandover, pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "rentals/"+rentalID.String()+"/handover-"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	exists, size, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(len(pngBytes)), size)

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, pngBytes, got)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting twice is fine")

	_, err = s.Open(ctx, key)
	assert.ErrorIs(t, err, ErrSignatureMissing)
}

func TestLocalSignatureStore_Rejects(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, uuid.New(), SignatureReturn, []byte("plain text, not an image"))
	assert.ErrorIs(t, err, ErrContentType)

	big := append(append([]byte{}, pngBytes...), make([]byte, 2048)...)
	_, err = s.Save(ctx, uuid.New(), SignatureReturn, big)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	for _, key := range []string{"", "../escape.png", "/etc/passwd", "rentals/../../x"} {
		_, _, err := s.Exists(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestWriteFile_FailedCopyLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handover.png")
	broken := io.MultiReader(bytes.NewReader(pngBytes), iotest.ErrReader(errors.New("connection reset")))

	err := writeFile(path, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "return.png")

	require.NoError(t, writeFile(path, bytes.NewReader(pngBytes)))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
