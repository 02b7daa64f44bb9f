package services

import "time"

// ─── Fine Calculation Constants ───────────────────────────────────────────────

const (
	// GracePeriodDays is the number of days after issue before fines accrue.
	GracePeriodDays = 7

	// FinePerDay is the fine amount (in currency units) charged per day past
	// the grace period.
	FinePerDay = 2
)

// FineFor computes the overdue fine for a loan issued on issueDate as of
// today. Both dates are taken at calendar-day granularity (midnight UTC), so
// a book issued late in the evening is not a day older by the next morning.
//
// A zero issueDate is a data-integrity problem in the stored record, not a
// reason to fail whoever is asking: the fine is reported as 0 together with
// ErrDataIntegrity so the caller can log it.
func FineFor(issueDate, today time.Time) (int, error) {
	if issueDate.IsZero() {
		return 0, ErrDataIntegrity
	}
	daysLate := daysBetween(issueDate, today) - GracePeriodDays
	if daysLate < 0 {
		daysLate = 0
	}
	return daysLate * FinePerDay, nil
}

// daysBetween counts whole calendar days from one date to another, ignoring
// time of day.
func daysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}

// civilDate truncates t to midnight UTC.
func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
