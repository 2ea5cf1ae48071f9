package service

import (
	"context"
	"testing"

	"mediarent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLookupService(m *mocks) *LookupService {
	return NewLookupService(m.store, WithClock(fixedClock{testNow}))
}

func TestLookupService_RejectsUnknownKind(t *testing.T) {
	m := newMocks()
	svc := newTestLookupService(m)

	err := svc.Create(context.Background(), &domain.Lookup{Kind: "brand", Name: "Sony"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.Create(context.Background(), &domain.Lookup{Kind: domain.LookupCategory, Name: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.List(context.Background(), "brand")
	assert.ErrorIs(t, err, domain.ErrValidation)
	m.lookups.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLookupService_Create(t *testing.T) {
	m := newMocks()
	svc := newTestLookupService(m)
	m.lookups.On("Create", mock.Anything, mock.AnythingOfType("*domain.Lookup")).Return(nil)

	l := &domain.Lookup{Kind: domain.LookupCategory, Name: "  Cameras ", SortOrder: 1}
	require.NoError(t, svc.Create(context.Background(), l))

	assert.NotEqual(t, uuid.Nil, l.ID)
	assert.Equal(t, "Cameras", l.Name)
	assert.True(t, l.IsActive)
	assert.Equal(t, testNow, l.CreatedAt)
	m.lookups.AssertExpectations(t)
}

func TestLookupService_Update(t *testing.T) {
	ctx := context.Background()
	current := &domain.Lookup{ID: uuid.New(), Kind: domain.LookupLocation, Name: "Shelf A", IsActive: true, CreatedAt: testNow}

	t.Run("keeps kind and creation time", func(t *testing.T) {
		m := newMocks()
		svc := newTestLookupService(m)
		m.lookups.On("GetByID", mock.Anything, current.ID).Return(current, nil)
		m.lookups.On("Update", mock.Anything, mock.AnythingOfType("*domain.Lookup")).Return(nil)

		l := &domain.Lookup{ID: current.ID, Name: "Shelf B", SortOrder: 2}
		require.NoError(t, svc.Update(ctx, l))

		assert.Equal(t, domain.LookupLocation, l.Kind)
		assert.Equal(t, testNow, l.CreatedAt)
		m.lookups.AssertExpectations(t)
	})

	t.Run("kind change", func(t *testing.T) {
		m := newMocks()
		svc := newTestLookupService(m)
		m.lookups.On("GetByID", mock.Anything, current.ID).Return(current, nil)

		err := svc.Update(ctx, &domain.Lookup{ID: current.ID, Kind: domain.LookupTag, Name: "Shelf A"})
		assert.ErrorIs(t, err, domain.ErrValidation)
		m.lookups.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown entry", func(t *testing.T) {
		m := newMocks()
		svc := newTestLookupService(m)
		id := uuid.New()
		m.lookups.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

		err := svc.Update(ctx, &domain.Lookup{ID: id, Name: "Shelf C"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLookupService_List(t *testing.T) {
	m := newMocks()
	svc := newTestLookupService(m)
	want := []domain.Lookup{
		{ID: uuid.New(), Kind: domain.LookupCondition, Name: "New", SortOrder: 0},
		{ID: uuid.New(), Kind: domain.LookupCondition, Name: "Worn", SortOrder: 1},
	}
	m.lookups.On("List", mock.Anything, domain.LookupCondition).Return(want, nil)

	got, err := svc.List(context.Background(), domain.LookupCondition)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLookupService_Delete(t *testing.T) {
	m := newMocks()
	svc := newTestLookupService(m)
	id, missing := uuid.New(), uuid.New()
	m.lookups.On("Delete", mock.Anything, id).Return(nil)
	m.lookups.On("Delete", mock.Anything, missing).Return(domain.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), id))
	assert.ErrorIs(t, svc.Delete(context.Background(), missing), domain.ErrNotFound)
}
