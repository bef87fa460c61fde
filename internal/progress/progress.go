// Package progress computes habit completion percentages and their
// rollups. All functions are pure and never fail: degenerate inputs
// (empty habit sets, zero targets, empty ranges) resolve to 0.
package progress

import (
	"math"
	"time"

	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/week"
)

// DateRange is an inclusive calendar date range
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to midnight
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: truncate(start), End: truncate(end)}
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Contains reports whether the given ledger date falls inside the range,
// inclusive on both ends. Malformed dates are never in range.
func (r DateRange) Contains(date string) bool {
	d, err := week.ParseDate(date)
	if err != nil {
		return false
	}
	return !d.Before(r.Start) && !d.After(r.End)
}

// HabitCompletion returns the habit's completion percentage over the
// range, rounded to the nearest integer.
//
// Daily habits are scored against the number of in-range days found, so
// their full marks scale with the observation window. Weekly and custom
// habits are scored against their fixed weekly target regardless of
// window length, matching how a user thinks about "3x per week".
func HabitCompletion(h models.Habit, r DateRange) int {
	var relevant, completed int
	for _, rec := range h.WeeklyProgress {
		for _, day := range rec.Days {
			if !r.Contains(day.Date) {
				continue
			}
			relevant++
			if day.Status == models.DayStatusCompleted {
				completed++
			}
		}
	}
	if relevant == 0 {
		return 0
	}

	target := relevant
	if h.Frequency != models.FrequencyDaily {
		target = h.Target
	}
	if target <= 0 {
		return 0
	}
	return round(float64(completed) / float64(target) * 100)
}

// CategoryCompletion returns the average habit completion over all
// habits carrying the tag, or 0 if none do.
func CategoryCompletion(tag string, habits []models.Habit, r DateRange) int {
	var tagged []models.Habit
	for _, h := range habits {
		if hasTag(h, tag) {
			tagged = append(tagged, h)
		}
	}
	return OverallCompletion(tagged, r)
}

// OverallCompletion returns the average habit completion over every
// habit, or 0 for an empty collection. Each habit's percentage is
// rounded before averaging; the average is rounded again independently.
func OverallCompletion(habits []models.Habit, r DateRange) int {
	if len(habits) == 0 {
		return 0
	}
	sum := 0
	for _, h := range habits {
		sum += HabitCompletion(h, r)
	}
	return round(float64(sum) / float64(len(habits)))
}

// WeeklyRollup is the primary dashboard metric: pooled completions over
// pooled targets for the single week starting at weekStart. A habit
// with no record for that week still contributes its full target.
func WeeklyRollup(habits []models.Habit, weekStart time.Time) int {
	if len(habits) == 0 {
		return 0
	}
	key := week.StartKey(weekStart)

	var completions, possible int
	for _, h := range habits {
		rec, ok := findWeek(h, key)
		if !ok {
			if h.Frequency == models.FrequencyDaily {
				possible += 7
			} else {
				possible += h.Target
			}
			continue
		}

		for _, day := range rec.Days {
			if day.Status == models.DayStatusCompleted {
				completions++
			}
		}
		if h.Frequency == models.FrequencyDaily {
			possible += len(rec.Days)
		} else {
			possible += h.Target
		}
	}

	if possible <= 0 {
		return 0
	}
	return round(float64(completions) / float64(possible) * 100)
}

func findWeek(h models.Habit, startDate string) (models.WeeklyRecord, bool) {
	for _, rec := range h.WeeklyProgress {
		if rec.StartDate == startDate {
			return rec, true
		}
	}
	return models.WeeklyRecord{}, false
}

func hasTag(h models.Habit, tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func round(v float64) int {
	return int(math.Round(v))
}
