package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberingService_NextNumber(t *testing.T) {
	ctx := context.Background()
	svc := NewNumberingService(memory.NewCounterRepository(), testPrefixes)

	for _, want := range []string{"INV-00001", "INV-00002", "INV-00003"} {
		got, err := svc.NextInventoryNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// series are independent
	got, err := svc.NextCustomerNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CUS-00001", got)
}

func TestNumberingService_NextRentalNumber(t *testing.T) {
	ctx := context.Background()
	svc := NewNumberingService(memory.NewCounterRepository(), testPrefixes)

	first, err := svc.NextRentalNumber(ctx, time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "RNT-20250309-0001", first)

	// the counter does not restart with the day
	second, err := svc.NextRentalNumber(ctx, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "RNT-20250310-0002", second)
}

func TestNumberingService_CounterFailure(t *testing.T) {
	ctx := context.Background()
	counters := memory.NewCounterRepository()
	counters.FailWith = errors.New("database is locked")
	svc := NewNumberingService(counters, testPrefixes)

	_, err := svc.NextNumber(ctx, CounterInventory, "INV")
	assert.ErrorIs(t, err, domain.ErrPersistence)

	_, err = svc.NextRentalNumber(ctx, testNow)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestNumberingService_With(t *testing.T) {
	ctx := context.Background()
	outer := memory.NewCounterRepository()
	tx := memory.NewCounterRepository()
	svc := NewNumberingService(outer, testPrefixes)

	got, err := svc.With(tx).NextNumber(ctx, "lens", "LNS")
	require.NoError(t, err)
	assert.Equal(t, "LNS-00001", got)
	assert.Equal(t, int64(1), tx.Value("lens"))
	assert.Zero(t, outer.Value("lens"))
}
