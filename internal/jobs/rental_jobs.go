package jobs

import (
	"context"
	"fmt"
	"time"

	"mediarent-backend/internal/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type OverdueEntry struct {
	RentalID     string
	RentalNumber string
	PlannedEnd   time.Time
	DaysOverdue  int
	Total        string
}

type OverdueReport struct {
	Entries []OverdueEntry
	// Outstanding is the summed rental value of the overdue rentals
	Outstanding string
}

// ReportOverdueRentals logs every active rental past its planned end. It
// only reads; the overdue status is derived, never stored.
func (jr *JobRunner) ReportOverdueRentals() {
	jr.runWithRecovery("ReportOverdueRentals", func(ctx context.Context) error {
		_, err := jr.BuildOverdueReport(ctx)
		return err
	})
}

func (jr *JobRunner) BuildOverdueReport(ctx context.Context) (*OverdueReport, error) {
	log := logger.WithJob("ReportOverdueRentals")

	money, err := newAmountFormatter(jr.config.Report.Locale, jr.config.Report.Currency)
	if err != nil {
		return nil, err
	}

	views, err := jr.services.Rentals.ListOverdue(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overdue rentals: %w", err)
	}

	report := &OverdueReport{Entries: make([]OverdueEntry, 0, len(views))}
	outstanding := decimal.Zero
	for _, v := range views {
		entry := OverdueEntry{
			RentalID:     v.Rental.ID.String(),
			RentalNumber: v.Rental.RentalNumber,
			PlannedEnd:   v.Rental.PlannedEndDate,
			DaysOverdue:  v.DaysOverdue,
			Total:        money.Format(v.Rental.TotalPrice),
		}
		report.Entries = append(report.Entries, entry)
		outstanding = outstanding.Add(v.Rental.TotalPrice)

		log.Warn("Rental overdue",
			"rental_id", entry.RentalID,
			"rental_number", entry.RentalNumber,
			"planned_end", entry.PlannedEnd.Format(time.DateOnly),
			"days_overdue", entry.DaysOverdue,
			"total", entry.Total)
	}
	report.Outstanding = money.Format(outstanding)

	log.Info("Overdue rentals reported", "count", len(report.Entries), "outstanding", report.Outstanding)
	return report, nil
}

// ReconcileEquipmentAvailability repairs units whose availability flag
// disagrees with the open rentals.
func (jr *JobRunner) ReconcileEquipmentAvailability() {
	jr.runWithRecovery("ReconcileEquipmentAvailability", func(ctx context.Context) error {
		repaired, err := jr.services.Equipment.ReconcileAvailability(ctx)
		if err != nil {
			return err
		}
		logger.WithJob("ReconcileEquipmentAvailability").Info("Equipment availability checked", "repaired", len(repaired))
		return nil
	})
}

type amountFormatter struct {
	printer *message.Printer
	unit    currency.Unit
}

func newAmountFormatter(locale, code string) (*amountFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("report locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("report currency %q: %w", code, err)
	}
	return &amountFormatter{printer: message.NewPrinter(tag), unit: unit}, nil
}

func (f *amountFormatter) Format(d decimal.Decimal) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(d.InexactFloat64())))
}
