// Package ledger maintains per-habit weekly completion records. All
// operations are pure: they return new habit values and never mutate
// their inputs.
package ledger

import (
	"sort"
	"time"

	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/week"
)

// NewWeek synthesizes the weekly record containing t, with all 7 days
// set to neutral.
func NewWeek(t time.Time) models.WeeklyRecord {
	start := week.Start(t)
	dates := week.Dates(start)
	days := make([]models.DayEntry, 7)
	for i, d := range dates {
		days[i] = models.DayEntry{Date: d, Status: models.DayStatusNeutral}
	}
	return models.WeeklyRecord{
		StartDate: start.Format(week.DateLayout),
		Days:      days,
	}
}

// GetOrCreateWeek returns the habit's record for the week containing
// target, creating and inserting it if absent. Repeated calls with any
// date in the same Mon-Sun span never produce a second record for that
// week. The returned habit has its records sorted descending by
// week-start (most recent first).
func GetOrCreateWeek(h models.Habit, target time.Time) (models.Habit, models.WeeklyRecord) {
	key := week.StartKey(target)
	for _, rec := range h.WeeklyProgress {
		if rec.StartDate == key {
			return h, rec
		}
	}

	out := h.Clone()
	rec := NewWeek(target)
	out.WeeklyProgress = append(out.WeeklyProgress, rec)
	sort.Slice(out.WeeklyProgress, func(i, j int) bool {
		return out.WeeklyProgress[i].StartDate > out.WeeklyProgress[j].StartDate
	})
	return out, rec
}

// SetDayStatus returns a new habit with the status of the given date
// replaced, creating the owning week if needed. Other weeks are left
// untouched. A malformed date is a caller programming error and results
// in the habit being returned unchanged.
func SetDayStatus(h models.Habit, date string, status models.DayStatus) models.Habit {
	target, err := week.ParseDate(date)
	if err != nil {
		return h
	}

	out, rec := GetOrCreateWeek(h, target)
	out = out.Clone()
	for wi, wp := range out.WeeklyProgress {
		if wp.StartDate != rec.StartDate {
			continue
		}
		for di, day := range wp.Days {
			if day.Date == date {
				out.WeeklyProgress[wi].Days[di].Status = status
			}
		}
	}
	return out
}
