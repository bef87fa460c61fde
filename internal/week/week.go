// Package week provides Monday-start calendar week math for habit ledgers.
package week

import "time"

// DateLayout is the wire format for all ledger dates
const DateLayout = "2006-01-02"

// Start returns the Monday on or before t, truncated to midnight in t's
// location. Idempotent: Start(Start(t)) == Start(t).
func Start(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return day.AddDate(0, 0, -offset)
}

// End returns the Sunday at the end of the week containing t, truncated
// to midnight.
func End(t time.Time) time.Time {
	return Start(t).AddDate(0, 0, 6)
}

// Dates returns the 7 consecutive calendar dates starting at weekStart,
// formatted as YYYY-MM-DD.
func Dates(weekStart time.Time) [7]string {
	var out [7]string
	for i := 0; i < 7; i++ {
		out[i] = weekStart.AddDate(0, 0, i).Format(DateLayout)
	}
	return out
}

// StartKey returns the YYYY-MM-DD key of the week containing t
func StartKey(t time.Time) string {
	return Start(t).Format(DateLayout)
}

// MonthStart returns the first day of t's month, truncated to midnight
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD ledger date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
