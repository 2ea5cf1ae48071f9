package jobs

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"mediarent-backend/internal/config"
	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRentals struct {
	mock.Mock
}

func (m *MockRentals) ListOverdue(ctx context.Context) ([]domain.RentalView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RentalView), args.Error(1)
}

type MockEquipment struct {
	mock.Mock
}

func (m *MockEquipment) ReconcileAvailability(ctx context.Context) ([]domain.Equipment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Report.Locale = "de-DE"
	cfg.Report.Currency = "EUR"
	return cfg
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.InitializeWriter(&buf, "debug", "json")
	t.Cleanup(func() { logger.Initialize("info", "text") })
	return &buf
}

func TestBuildOverdueReport(t *testing.T) {
	ctx := context.Background()
	rentals := new(MockRentals)
	jr := NewJobRunner(&Services{Rentals: rentals}, testConfig())
	logs := captureLogs(t)

	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	late := domain.Rental{
		ID:             uuid.New(),
		RentalNumber:   "RNT-20250601-0004",
		Status:         domain.RentalStatusActive,
		PlannedEndDate: now.AddDate(0, 0, -2),
		TotalPrice:     decimal.RequireFromString("1234.50"),
	}
	rentals.On("ListOverdue", mock.Anything).Return([]domain.RentalView{domain.NewRentalView(late, now)}, nil)

	report, err := jr.BuildOverdueReport(ctx)

	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "RNT-20250601-0004", report.Entries[0].RentalNumber)
	assert.Equal(t, 2, report.Entries[0].DaysOverdue)
	assert.Contains(t, report.Entries[0].Total, "€")
	assert.Contains(t, logs.String(), `"rental_number":"RNT-20250601-0004"`)
	assert.Contains(t, logs.String(), "Rental overdue")
	// reporting never changes the stored status
	assert.Equal(t, domain.RentalStatusActive, late.Status)
}

func TestBuildOverdueReport_BadCurrency(t *testing.T) {
	cfg := testConfig()
	cfg.Report.Currency = "XYZW"
	jr := NewJobRunner(&Services{Rentals: new(MockRentals)}, cfg)

	_, err := jr.BuildOverdueReport(context.Background())
	assert.Error(t, err)
}

func TestReportOverdueRentals_LogsFailure(t *testing.T) {
	rentals := new(MockRentals)
	jr := NewJobRunner(&Services{Rentals: rentals}, testConfig())
	logs := captureLogs(t)

	rentals.On("ListOverdue", mock.Anything).Return(nil, domain.ErrPersistence)

	jr.ReportOverdueRentals()

	assert.Contains(t, logs.String(), "Job failed")
	assert.Contains(t, logs.String(), `"job":"ReportOverdueRentals"`)
}

func TestReconcileEquipmentAvailability(t *testing.T) {
	equipment := new(MockEquipment)
	jr := NewJobRunner(&Services{Equipment: equipment}, testConfig())
	logs := captureLogs(t)

	equipment.On("ReconcileAvailability", mock.Anything).Return([]domain.Equipment{{ID: uuid.New()}}, nil).Once()

	jr.ReconcileEquipmentAvailability()

	equipment.AssertExpectations(t)
	assert.Contains(t, logs.String(), `"repaired":1`)
	assert.Contains(t, logs.String(), "Job completed")
}

func TestRunWithRecovery_Panic(t *testing.T) {
	jr := NewJobRunner(&Services{}, testConfig())
	logs := captureLogs(t)

	assert.NotPanics(t, func() {
		jr.runWithRecovery("Boom", func(ctx context.Context) error {
			panic(errors.New("nil map"))
		})
	})
	assert.Contains(t, logs.String(), "Job panicked")
}
