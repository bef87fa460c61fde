package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/ledger"
	"github.com/mglynn/habitflow/internal/models"
)

// weekOf is the Monday of the fixed week used throughout these tests
var weekOf = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

// habitWithWeek builds a habit with one weekly record for weekOf in
// which the first n days are completed.
func habitWithWeek(freq models.Frequency, target, completedDays int) models.Habit {
	h := models.Habit{
		ID:        uuid.New(),
		Name:      "test",
		Frequency: freq,
		Target:    target,
	}
	rec := ledger.NewWeek(weekOf)
	for i := 0; i < completedDays && i < 7; i++ {
		rec.Days[i].Status = models.DayStatusCompleted
	}
	h.WeeklyProgress = []models.WeeklyRecord{rec}
	return h
}

func fullWeek() DateRange {
	return NewDateRange(weekOf, weekOf.AddDate(0, 0, 6))
}

func TestHabitCompletion_Daily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		completed int
		want      int
	}{
		{name: "5 of 7 rounds to 71", completed: 5, want: 71},
		{name: "all 7 is 100", completed: 7, want: 100},
		{name: "none is 0", completed: 0, want: 0},
		{name: "1 of 7 rounds to 14", completed: 1, want: 14},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := habitWithWeek(models.FrequencyDaily, 7, tt.completed)
			if got := HabitCompletion(h, fullWeek()); got != tt.want {
				t.Errorf("HabitCompletion() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHabitCompletion_CustomTargetIgnoresRangeLength(t *testing.T) {
	t.Parallel()

	// Custom habits are measured against the fixed target even when the
	// range spans many days.
	h := habitWithWeek(models.FrequencyCustom, 3, 2)
	if got := HabitCompletion(h, fullWeek()); got != 67 {
		t.Errorf("HabitCompletion() = %d, want 67", got)
	}
}

func TestHabitCompletion_NoEntriesInRange(t *testing.T) {
	t.Parallel()

	h := habitWithWeek(models.FrequencyDaily, 7, 5)
	outside := NewDateRange(weekOf.AddDate(0, 1, 0), weekOf.AddDate(0, 1, 6))
	if got := HabitCompletion(h, outside); got != 0 {
		t.Errorf("HabitCompletion() = %d, want 0", got)
	}
}

func TestHabitCompletion_ZeroTargetDegradesToZero(t *testing.T) {
	t.Parallel()

	h := habitWithWeek(models.FrequencyCustom, 0, 2)
	if got := HabitCompletion(h, fullWeek()); got != 0 {
		t.Errorf("HabitCompletion() = %d, want 0", got)
	}
}

func TestHabitCompletion_RangeBoundsInclusive(t *testing.T) {
	t.Parallel()

	h := habitWithWeek(models.FrequencyDaily, 7, 7)
	// Single-day range on the first day of the week: exactly one
	// relevant day, completed.
	oneDay := NewDateRange(weekOf, weekOf)
	if got := HabitCompletion(h, oneDay); got != 100 {
		t.Errorf("HabitCompletion() = %d, want 100", got)
	}
}

func TestOverallCompletion(t *testing.T) {
	t.Parallel()

	t.Run("empty set is 0", func(t *testing.T) {
		t.Parallel()
		if got := OverallCompletion(nil, fullWeek()); got != 0 {
			t.Errorf("OverallCompletion(nil) = %d, want 0", got)
		}
	})

	t.Run("mixed frequencies average per habit", func(t *testing.T) {
		t.Parallel()

		// H1 daily 7/7 => 100; H2 custom target=2 with 1 completion => 50.
		h1 := habitWithWeek(models.FrequencyDaily, 7, 7)
		h2 := habitWithWeek(models.FrequencyCustom, 2, 1)
		if got := OverallCompletion([]models.Habit{h1, h2}, fullWeek()); got != 75 {
			t.Errorf("OverallCompletion() = %d, want 75", got)
		}
	})
}

func TestCategoryCompletion(t *testing.T) {
	t.Parallel()

	h1 := habitWithWeek(models.FrequencyDaily, 7, 7)
	h1.Tags = []string{"health"}
	h2 := habitWithWeek(models.FrequencyCustom, 2, 1)
	h2.Tags = []string{"work"}
	habits := []models.Habit{h1, h2}

	tests := []struct {
		name string
		tag  string
		want int
	}{
		{name: "only tagged habits counted", tag: "health", want: 100},
		{name: "other tag", tag: "work", want: 50},
		{name: "nonexistent tag is 0", tag: "nonexistent-tag", want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CategoryCompletion(tt.tag, habits, fullWeek()); got != tt.want {
				t.Errorf("CategoryCompletion(%q) = %d, want %d", tt.tag, got, tt.want)
			}
		})
	}
}

func TestWeeklyRollup(t *testing.T) {
	t.Parallel()

	t.Run("pools completions against pooled targets", func(t *testing.T) {
		t.Parallel()

		// daily 5/7 + custom 2 of target 3: (5+2)/(7+3) = 70%
		h1 := habitWithWeek(models.FrequencyDaily, 7, 5)
		h2 := habitWithWeek(models.FrequencyCustom, 3, 2)
		if got := WeeklyRollup([]models.Habit{h1, h2}, weekOf); got != 70 {
			t.Errorf("WeeklyRollup() = %d, want 70", got)
		}
	})

	t.Run("habit without the week still contributes its target", func(t *testing.T) {
		t.Parallel()

		h1 := habitWithWeek(models.FrequencyDaily, 7, 7)
		h2 := models.Habit{ID: uuid.New(), Frequency: models.FrequencyCustom, Target: 3}
		// (7+0)/(7+3) = 70%
		if got := WeeklyRollup([]models.Habit{h1, h2}, weekOf); got != 70 {
			t.Errorf("WeeklyRollup() = %d, want 70", got)
		}
	})

	t.Run("empty set is 0", func(t *testing.T) {
		t.Parallel()
		if got := WeeklyRollup(nil, weekOf); got != 0 {
			t.Errorf("WeeklyRollup(nil) = %d, want 0", got)
		}
	})
}

func TestRoundingIsPerMetric(t *testing.T) {
	t.Parallel()

	// Three daily habits at 5/7 each round to 71 individually; the
	// overall average is round(213/3) = 71, not round(500/7) = 71.43
	// truncated elsewhere. The point is that rounding happens once per
	// metric boundary, using already-rounded inputs.
	h := habitWithWeek(models.FrequencyDaily, 7, 5)
	habits := []models.Habit{h, h, h}
	if got := OverallCompletion(habits, fullWeek()); got != 71 {
		t.Errorf("OverallCompletion() = %d, want 71", got)
	}
}
