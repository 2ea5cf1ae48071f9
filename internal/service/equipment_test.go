package service

import (
	"context"
	"testing"

	"mediarent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEquipmentService(m *mocks) *EquipmentService {
	return NewEquipmentService(m.store, NewNumberingService(m.counters, testPrefixes), WithClock(fixedClock{testNow}))
}

func TestEquipmentService_Create(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	svc := newTestEquipmentService(m)

	m.equipment.On("Create", mock.Anything, mock.AnythingOfType("*domain.Equipment")).Return(nil)
	m.audit.On("Append", mock.Anything, mock.AnythingOfType("*domain.AuditLog")).Return(nil)

	for _, want := range []string{"INV-00001", "INV-00002", "INV-00003"} {
		e := &domain.Equipment{Name: "Aputure 600d", DailyRate: decimal.NewNullDecimal(decimal.NewFromInt(35))}
		require.NoError(t, svc.Create(ctx, e))
		assert.Equal(t, want, e.InventoryNumber)
		assert.True(t, e.IsAvailable)
		assert.True(t, e.IsActive)
		assert.Equal(t, testNow, e.CreatedAt)
	}
	m.equipment.AssertNumberOfCalls(t, "Create", 3)
}

func TestEquipmentService_Create_Validation(t *testing.T) {
	m := newMocks()
	svc := newTestEquipmentService(m)

	err := svc.Create(context.Background(), &domain.Equipment{Name: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.Create(context.Background(), &domain.Equipment{
		Name:      "Tripod",
		DailyRate: decimal.NewNullDecimal(decimal.NewFromInt(-5)),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.Create(context.Background(), &domain.Equipment{
		Name:          "Tripod",
		PurchasePrice: decimal.NewNullDecimal(decimal.RequireFromString("899.995")),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, m.counters.Value(CounterInventory))
}

func TestEquipmentService_Create_Classification(t *testing.T) {
	ctx := context.Background()
	category := &domain.Lookup{ID: uuid.New(), Kind: domain.LookupCategory, Name: "Lights"}
	shelf := &domain.Lookup{ID: uuid.New(), Kind: domain.LookupLocation, Name: "Shelf A"}

	t.Run("matching kinds", func(t *testing.T) {
		m := newMocks()
		svc := newTestEquipmentService(m)
		m.lookups.On("GetByID", mock.Anything, category.ID).Return(category, nil)
		m.lookups.On("GetByID", mock.Anything, shelf.ID).Return(shelf, nil)
		m.equipment.On("Create", mock.Anything, mock.AnythingOfType("*domain.Equipment")).Return(nil)
		m.audit.On("Append", mock.Anything, mock.AnythingOfType("*domain.AuditLog")).Return(nil)

		e := &domain.Equipment{Name: "Aputure 600d", CategoryID: &category.ID, LocationID: &shelf.ID}
		require.NoError(t, svc.Create(ctx, e))
		assert.Equal(t, "INV-00001", e.InventoryNumber)
		m.lookups.AssertExpectations(t)
	})

	t.Run("location used as category", func(t *testing.T) {
		m := newMocks()
		svc := newTestEquipmentService(m)
		m.lookups.On("GetByID", mock.Anything, shelf.ID).Return(shelf, nil)

		err := svc.Create(ctx, &domain.Equipment{Name: "Aputure 600d", CategoryID: &shelf.ID})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, 1, m.store.rollbacks)
		m.equipment.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing entry", func(t *testing.T) {
		m := newMocks()
		svc := newTestEquipmentService(m)
		id := uuid.New()
		m.lookups.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

		err := svc.Create(ctx, &domain.Equipment{Name: "Aputure 600d", ConditionID: &id})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, m.counters.Value(CounterInventory))
	})
}

func TestEquipmentService_Retire(t *testing.T) {
	ctx := context.Background()

	t.Run("free unit", func(t *testing.T) {
		m := newMocks()
		svc := newTestEquipmentService(m)
		e := testEquipment(50, true)

		m.equipment.On("LockByIDs", mock.Anything, []uuid.UUID{e.ID}).Return(domain.NewEquipmentSet(e), nil)
		m.equipment.On("SetActive", mock.Anything, e.ID, false, testNow).Return(nil)
		m.audit.On("Append", mock.Anything, mock.AnythingOfType("*domain.AuditLog")).Return(nil)

		require.NoError(t, svc.Retire(ctx, e.ID))
		m.equipment.AssertExpectations(t)
	})

	t.Run("unit on a rental", func(t *testing.T) {
		m := newMocks()
		svc := newTestEquipmentService(m)
		e := testEquipment(50, false)

		m.equipment.On("LockByIDs", mock.Anything, []uuid.UUID{e.ID}).Return(domain.NewEquipmentSet(e), nil)

		err := svc.Retire(ctx, e.ID)
		assert.ErrorIs(t, err, domain.ErrConflict)
		m.equipment.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown unit", func(t *testing.T) {
		m := newMocks()
		svc := newTestEquipmentService(m)
		id := uuid.New()

		m.equipment.On("LockByIDs", mock.Anything, []uuid.UUID{id}).Return(domain.EquipmentSet{}, nil)

		assert.ErrorIs(t, svc.Retire(ctx, id), domain.ErrNotFound)
	})
}

func TestEquipmentService_RecordMaintenance(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	svc := newTestEquipmentService(m)
	e := testEquipment(50, true)

	m.equipment.On("GetByID", mock.Anything, e.ID).Return(e, nil)
	m.history.On("AddMaintenance", mock.Anything, mock.AnythingOfType("*domain.MaintenanceRecord")).Return(nil)

	rec := &domain.MaintenanceRecord{EquipmentID: e.ID, Description: "Sensor cleaning"}
	require.NoError(t, svc.RecordMaintenance(ctx, rec))
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, testNow, rec.PerformedAt)

	err := svc.RecordMaintenance(ctx, &domain.MaintenanceRecord{EquipmentID: e.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEquipmentService_History(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	svc := newTestEquipmentService(m)
	id := uuid.New()

	m.history.On("ListMaintenance", mock.Anything, id).Return([]domain.MaintenanceRecord{{ID: uuid.New()}}, nil)
	m.history.On("ListDamage", mock.Anything, id).Return([]domain.DamageReport{}, nil)

	h, err := svc.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, h.Maintenance, 1)
	assert.Empty(t, h.Damage)
}

func TestEquipmentService_ReconcileAvailability(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	svc := newTestEquipmentService(m)

	// held by an open rental but marked available
	stale := testEquipment(50, true)
	// free but marked unavailable
	stuck := testEquipment(20, false)
	// consistent
	fine := testEquipment(30, true)

	m.equipment.On("List", mock.Anything, domain.EquipmentFilter{}).
		Return([]domain.Equipment{*stale, *stuck, *fine}, nil)
	m.rentals.On("HeldEquipmentIDs", mock.Anything).Return([]uuid.UUID{stale.ID}, nil)
	m.equipment.On("LockByIDs", mock.Anything, []uuid.UUID{stale.ID, stuck.ID}).
		Return(domain.NewEquipmentSet(stale, stuck), nil)
	m.equipment.On("UpdateAvailability", mock.Anything, mock.AnythingOfType("domain.EquipmentSet")).Return(nil)
	m.audit.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditLog) bool {
		return e.Action == domain.AuditAvailabilityRepaired
	})).Return(nil).Twice()

	repaired, err := svc.ReconcileAvailability(ctx)

	require.NoError(t, err)
	assert.Len(t, repaired, 2)
	assert.False(t, stale.IsAvailable)
	assert.True(t, stuck.IsAvailable)
	assert.Equal(t, 1, m.store.commits)
	m.audit.AssertExpectations(t)
}

func TestEquipmentService_ReconcileAvailability_NoDrift(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	svc := newTestEquipmentService(m)
	e := testEquipment(50, true)

	m.equipment.On("List", mock.Anything, domain.EquipmentFilter{}).Return([]domain.Equipment{*e}, nil)
	m.rentals.On("HeldEquipmentIDs", mock.Anything).Return([]uuid.UUID{}, nil)

	repaired, err := svc.ReconcileAvailability(ctx)

	require.NoError(t, err)
	assert.Empty(t, repaired)
	m.equipment.AssertNotCalled(t, "LockByIDs", mock.Anything, mock.Anything)
	m.equipment.AssertNotCalled(t, "UpdateAvailability", mock.Anything, mock.Anything)
}
