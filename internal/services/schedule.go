package services

import (
	"time"
)

const dateLayout = "2006-01-02"

// nextRunAfter computes the next occurrence of dayOfMonth at or after today.
// When this month's occurrence has already passed, the next run is next
// month's occurrence and a catch-up materialization for the current month is
// due immediately. dayOfMonth is capped at 28 so every month has the date.
func nextRunAfter(today time.Time, dayOfMonth int) (next time.Time, catchUpDue bool) {
	today = dateOnly(today)
	current := time.Date(today.Year(), today.Month(), dayOfMonth, 0, 0, 0, 0, today.Location())
	if current.Before(today) {
		return current.AddDate(0, 1, 0), true
	}
	return current, false
}

// occurrenceThisMonth is the dayOfMonth occurrence in today's month.
func occurrenceThisMonth(today time.Time, dayOfMonth int) time.Time {
	today = dateOnly(today)
	return time.Date(today.Year(), today.Month(), dayOfMonth, 0, 0, 0, 0, today.Location())
}

// monthBounds returns the first and last day of t's month as YYYY-MM-DD.
func monthBounds(t time.Time) (from, to string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format(dateLayout), last.Format(dateLayout)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func validDayOfMonth(day int) bool {
	return day >= 1 && day <= 28
}
