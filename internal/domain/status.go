package domain

import "time"

// DisplayStatus returns overdue for an active rental whose planned end has
// passed, and the stored status otherwise. It never modifies the rental.
func DisplayStatus(r *Rental, now time.Time) RentalStatus {
	if r.Status == RentalStatusActive && r.PlannedEndDate.Before(now) {
		return RentalStatusOverdue
	}
	return r.Status
}

// DaysOverdue is the number of calendar days between the planned end and now,
// or 0 when the rental is not overdue.
func DaysOverdue(r *Rental, now time.Time) int {
	if DisplayStatus(r, now) != RentalStatusOverdue {
		return 0
	}
	return CalendarDaysBetween(r.PlannedEndDate, now)
}

// NumberOfDays is the billable duration. Actual dates win over planned ones
// and the result is never below 1, even for inverted ranges.
func NumberOfDays(r *Rental) int {
	start := r.PlannedStartDate
	if r.ActualStartDate != nil {
		start = *r.ActualStartDate
	}
	end := r.PlannedEndDate
	if r.ActualEndDate != nil {
		end = *r.ActualEndDate
	}
	return max(1, CalendarDaysBetween(start, end))
}

// CalendarDaysBetween counts midnights between from and to, evaluated in
// from's location. Negative when to precedes from.
func CalendarDaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.In(from.Location()).Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
