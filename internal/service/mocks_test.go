package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"
	"mediarent-backend/internal/repository/memory"
	"mediarent-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEquipmentRepo
type MockEquipmentRepo struct {
	mock.Mock
}

func (m *MockEquipmentRepo) Create(ctx context.Context, e *domain.Equipment) error {
	return m.Called(ctx, e).Error(0)
}
func (m *MockEquipmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}
func (m *MockEquipmentRepo) GetByInventoryNumber(ctx context.Context, number string) (*domain.Equipment, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}
func (m *MockEquipmentRepo) Update(ctx context.Context, e *domain.Equipment) error {
	return m.Called(ctx, e).Error(0)
}
func (m *MockEquipmentRepo) List(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Equipment), args.Error(1)
}
func (m *MockEquipmentRepo) LockByIDs(ctx context.Context, ids []uuid.UUID) (domain.EquipmentSet, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.EquipmentSet), args.Error(1)
}
func (m *MockEquipmentRepo) UpdateAvailability(ctx context.Context, set domain.EquipmentSet) error {
	return m.Called(ctx, set).Error(0)
}
func (m *MockEquipmentRepo) SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error {
	return m.Called(ctx, id, active, at).Error(0)
}

// MockCustomerRepo
type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
func (m *MockCustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockCustomerRepo) List(ctx context.Context, search string) ([]domain.Customer, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]domain.Customer), args.Error(1)
}
func (m *MockCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, r *domain.Rental) error {
	return m.Called(ctx, r).Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Update(ctx context.Context, r *domain.Rental) error {
	return m.Called(ctx, r).Error(0)
}
func (m *MockRentalRepo) AddItem(ctx context.Context, item *domain.RentalItem) error {
	return m.Called(ctx, item).Error(0)
}
func (m *MockRentalRepo) UpdateItemConditions(ctx context.Context, items []domain.RentalItem) error {
	return m.Called(ctx, items).Error(0)
}
func (m *MockRentalRepo) List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockRentalRepo) HeldEquipmentIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockAuditRepo
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Append(ctx context.Context, entry *domain.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}
func (m *MockAuditRepo) ListByEntity(ctx context.Context, entity, entityID string) ([]domain.AuditLog, error) {
	args := m.Called(ctx, entity, entityID)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

// MockHistoryRepo
type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) AddMaintenance(ctx context.Context, rec *domain.MaintenanceRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *MockHistoryRepo) AddDamage(ctx context.Context, d *domain.DamageReport) error {
	return m.Called(ctx, d).Error(0)
}
func (m *MockHistoryRepo) ListMaintenance(ctx context.Context, equipmentID uuid.UUID) ([]domain.MaintenanceRecord, error) {
	args := m.Called(ctx, equipmentID)
	return args.Get(0).([]domain.MaintenanceRecord), args.Error(1)
}
func (m *MockHistoryRepo) ListDamage(ctx context.Context, equipmentID uuid.UUID) ([]domain.DamageReport, error) {
	args := m.Called(ctx, equipmentID)
	return args.Get(0).([]domain.DamageReport), args.Error(1)
}

// MockLookupRepo
type MockLookupRepo struct {
	mock.Mock
}

func (m *MockLookupRepo) Create(ctx context.Context, l *domain.Lookup) error {
	return m.Called(ctx, l).Error(0)
}
func (m *MockLookupRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lookup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lookup), args.Error(1)
}
func (m *MockLookupRepo) Update(ctx context.Context, l *domain.Lookup) error {
	return m.Called(ctx, l).Error(0)
}
func (m *MockLookupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockLookupRepo) List(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]domain.Lookup), args.Error(1)
}

// fakeStore hands the same repositories to reads and transactions and
// records how each transaction ended.
type fakeStore struct {
	repos     repository.Repositories
	commits   int
	rollbacks int
}

func (s *fakeStore) Repos() repository.Repositories { return s.repos }

func (s *fakeStore) RunInTx(ctx context.Context, fn repository.TxFunc) error {
	if err := fn(ctx, s.repos); err != nil {
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

type mocks struct {
	equipment *MockEquipmentRepo
	customers *MockCustomerRepo
	rentals   *MockRentalRepo
	audit     *MockAuditRepo
	history   *MockHistoryRepo
	lookups   *MockLookupRepo
	counters  *memory.CounterRepository
	store     *fakeStore
}

func newMocks() *mocks {
	m := &mocks{
		equipment: new(MockEquipmentRepo),
		customers: new(MockCustomerRepo),
		rentals:   new(MockRentalRepo),
		audit:     new(MockAuditRepo),
		history:   new(MockHistoryRepo),
		lookups:   new(MockLookupRepo),
		counters:  memory.NewCounterRepository(),
	}
	m.store = &fakeStore{repos: repository.Repositories{
		Equipment: m.equipment,
		Customers: m.customers,
		Rentals:   m.rentals,
		Counters:  m.counters,
		Audit:     m.audit,
		History:   m.history,
		Lookups:   m.lookups,
		Settings:  memory.NewSettingsRepository(),
	}}
	return m
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testPrefixes = Prefixes{Inventory: "INV", Customer: "CUS", Rental: "RNT"}

// memorySignatures is a SignatureStore kept in a map
type memorySignatures struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemorySignatures() *memorySignatures {
	return &memorySignatures{files: make(map[string][]byte)}
}

func (s *memorySignatures) Save(ctx context.Context, rentalID uuid.UUID, kind storage.SignatureKind, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("rentals/%s/%s-%d.png", rentalID, kind, len(s.files))
	s.files[key] = data
	return key, nil
}

func (s *memorySignatures) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, storage.ErrSignatureMissing
}

func (s *memorySignatures) Exists(ctx context.Context, key string) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[key]
	return ok, int64(len(data)), nil
}

func (s *memorySignatures) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *memorySignatures) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
