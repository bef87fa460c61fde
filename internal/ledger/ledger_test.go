package ledger

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/models"
)

func newHabit() models.Habit {
	return models.Habit{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      "read",
		Frequency: models.FrequencyDaily,
		Target:    7,
	}
}

func TestNewWeek(t *testing.T) {
	t.Parallel()

	rec := NewWeek(time.Date(2025, time.June, 4, 15, 30, 0, 0, time.UTC))

	if rec.StartDate != "2025-06-02" {
		t.Errorf("StartDate = %s, want 2025-06-02", rec.StartDate)
	}
	if len(rec.Days) != 7 {
		t.Fatalf("len(Days) = %d, want 7", len(rec.Days))
	}
	for i, day := range rec.Days {
		if day.Status != models.DayStatusNeutral {
			t.Errorf("day %d status = %s, want neutral", i, day.Status)
		}
	}
	if rec.Days[0].Date != "2025-06-02" || rec.Days[6].Date != "2025-06-08" {
		t.Errorf("day span = %s..%s, want 2025-06-02..2025-06-08", rec.Days[0].Date, rec.Days[6].Date)
	}
}

func TestGetOrCreateWeek_Idempotent(t *testing.T) {
	t.Parallel()

	h := newHabit()

	// Two calls with different dates inside the same Mon-Sun span must
	// not produce two records for that week.
	h1, rec1 := GetOrCreateWeek(h, time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC))
	h2, rec2 := GetOrCreateWeek(h1, time.Date(2025, time.June, 8, 0, 0, 0, 0, time.UTC))

	if rec1.StartDate != rec2.StartDate {
		t.Errorf("records differ: %s vs %s", rec1.StartDate, rec2.StartDate)
	}
	if len(h2.WeeklyProgress) != 1 {
		t.Fatalf("len(WeeklyProgress) = %d, want 1", len(h2.WeeklyProgress))
	}
}

func TestGetOrCreateWeek_SortsDescending(t *testing.T) {
	t.Parallel()

	h := newHabit()
	h, _ = GetOrCreateWeek(h, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC))
	h, _ = GetOrCreateWeek(h, time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC))
	h, _ = GetOrCreateWeek(h, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC))

	want := []string{"2025-06-16", "2025-06-09", "2025-06-02"}
	for i, rec := range h.WeeklyProgress {
		if rec.StartDate != want[i] {
			t.Errorf("record %d start = %s, want %s", i, rec.StartDate, want[i])
		}
	}
}

func TestGetOrCreateWeek_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	h := newHabit()
	out, _ := GetOrCreateWeek(h, time.Now())

	if len(h.WeeklyProgress) != 0 {
		t.Errorf("input habit was mutated: %d records", len(h.WeeklyProgress))
	}
	if len(out.WeeklyProgress) != 1 {
		t.Errorf("output has %d records, want 1", len(out.WeeklyProgress))
	}
}

func TestSetDayStatus(t *testing.T) {
	t.Parallel()

	h := newHabit()
	out := SetDayStatus(h, "2025-06-04", models.DayStatusCompleted)

	if len(out.WeeklyProgress) != 1 {
		t.Fatalf("len(WeeklyProgress) = %d, want 1", len(out.WeeklyProgress))
	}
	rec := out.WeeklyProgress[0]
	for _, day := range rec.Days {
		want := models.DayStatusNeutral
		if day.Date == "2025-06-04" {
			want = models.DayStatusCompleted
		}
		if day.Status != want {
			t.Errorf("day %s status = %s, want %s", day.Date, day.Status, want)
		}
	}
}

func TestSetDayStatus_MalformedDateIsNoop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date string
	}{
		{name: "empty", date: ""},
		{name: "wrong layout", date: "04-06-2025"},
		{name: "garbage", date: "not-a-date"},
		{name: "out of range day", date: "2025-06-32"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHabit()
			out := SetDayStatus(h, tt.date, models.DayStatusCompleted)
			if !reflect.DeepEqual(out, h) {
				t.Errorf("habit changed for malformed date %q", tt.date)
			}
		})
	}
}

func TestSetDayStatus_LeavesOtherWeeksUntouched(t *testing.T) {
	t.Parallel()

	h := newHabit()
	h = SetDayStatus(h, "2025-06-04", models.DayStatusCompleted)
	before := models.CloneProgress(h.WeeklyProgress)

	// A date in a brand-new week creates exactly one record and leaves
	// the existing week byte-for-byte unchanged.
	out := SetDayStatus(h, "2025-06-11", models.DayStatusFailed)

	if len(out.WeeklyProgress) != 2 {
		t.Fatalf("len(WeeklyProgress) = %d, want 2", len(out.WeeklyProgress))
	}
	var oldWeek *models.WeeklyRecord
	for i := range out.WeeklyProgress {
		if out.WeeklyProgress[i].StartDate == "2025-06-02" {
			oldWeek = &out.WeeklyProgress[i]
		}
	}
	if oldWeek == nil {
		t.Fatal("original week disappeared")
	}
	if !reflect.DeepEqual(*oldWeek, before[0]) {
		t.Errorf("original week changed: %+v vs %+v", *oldWeek, before[0])
	}
}
