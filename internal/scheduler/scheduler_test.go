package scheduler

import (
	"testing"
	"time"

	"mediarent-backend/internal/config"
	"mediarent-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RegistersJobs(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.ReportOverdueRentals = "0 0 7 * * *"
	cfg.Scheduler.ReconcileEquipmentAvailability = "0 30 2 * * *"

	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg), time.UTC)
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 2)
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.ReportOverdueRentals = "every morning"
	cfg.Scheduler.ReconcileEquipmentAvailability = "0 30 2 * * *"

	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg), time.UTC)
	assert.Error(t, err)
}
