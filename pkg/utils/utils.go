package utils

import (
	"time"
)

// DateLayout is the calendar-date format accepted on the wire.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// EndOfDay pushes a calendar date to its last representable instant, so a
// report range "to 2026-08-31" includes loans created that day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// IsDateOverdue checks if a due date has passed relative to now.
func IsDateOverdue(dueDate, now time.Time) bool {
	return now.After(dueDate)
}

// DaysLate counts whole days past the due date, minimum 1 once overdue.
func DaysLate(dueDate, now time.Time) int {
	if !now.After(dueDate) {
		return 0
	}
	days := int(now.Sub(dueDate).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}
