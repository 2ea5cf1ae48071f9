package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mediarent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRepository_Next(t *testing.T) {
	repo := NewCounterRepository()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := repo.Next(ctx, "inventory")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := repo.Next(ctx, "customer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "keys are independent")
}

func TestCounterRepository_Concurrent(t *testing.T) {
	repo := NewCounterRepository()
	ctx := context.Background()

	const workers = 50
	seen := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.Next(ctx, "rental")
			if err == nil {
				seen <- n
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for n := range seen {
		unique[n] = true
	}
	assert.Len(t, unique, workers)
	assert.Equal(t, int64(workers), repo.Value("rental"))
}

func TestCounterRepository_Failure(t *testing.T) {
	repo := NewCounterRepository()
	repo.FailWith = errors.New("disk full")

	_, err := repo.Next(context.Background(), "inventory")
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, int64(0), repo.Value("inventory"))
}
