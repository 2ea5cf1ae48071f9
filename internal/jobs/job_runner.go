package jobs

import (
	"context"
	"time"

	"mediarent-backend/internal/config"
	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/logger"
)

// OverdueLister is the read side of the rental service used by the report
type OverdueLister interface {
	ListOverdue(ctx context.Context) ([]domain.RentalView, error)
}

// AvailabilityReconciler repairs equipment availability drift
type AvailabilityReconciler interface {
	ReconcileAvailability(ctx context.Context) ([]domain.Equipment, error)
}

// Services holds the service dependencies needed by jobs
type Services struct {
	Rentals   OverdueLister
	Equipment AvailabilityReconciler
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	timeout  time.Duration
}

func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		timeout:  5 * time.Minute,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and a deadline
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	start := time.Now()
	log.Info("Starting job")
	if err := jobFunc(ctx); err != nil {
		log.Error("Job failed", "error", err, "duration", time.Since(start))
		return
	}
	log.Info("Job completed", "duration", time.Since(start))
}

// RunAll runs every job once, in schedule order
func (jr *JobRunner) RunAll() {
	jr.ReconcileEquipmentAvailability()
	jr.ReportOverdueRentals()
}
