package week

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStart_AlwaysMonday(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "monday maps to itself",
			in:   date(2025, time.June, 2),
			want: date(2025, time.June, 2),
		},
		{
			name: "wednesday maps back to monday",
			in:   date(2025, time.June, 4),
			want: date(2025, time.June, 2),
		},
		{
			name: "sunday maps back six days",
			in:   date(2025, time.June, 8),
			want: date(2025, time.June, 2),
		},
		{
			name: "week spanning a month boundary",
			in:   date(2025, time.July, 1),
			want: date(2025, time.June, 30),
		},
		{
			name: "week spanning a year boundary",
			in:   date(2026, time.January, 3),
			want: date(2025, time.December, 29),
		},
		{
			name: "time of day is discarded",
			in:   time.Date(2025, time.June, 4, 23, 59, 59, 0, time.UTC),
			want: date(2025, time.June, 2),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Start(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Start(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Weekday() != time.Monday {
				t.Errorf("Start(%v) fell on %v, want Monday", tt.in, got.Weekday())
			}
		})
	}
}

func TestStart_Idempotent(t *testing.T) {
	t.Parallel()

	// Every day of one full week must normalize to the same Monday,
	// and applying Start twice must be a fixed point.
	monday := date(2025, time.June, 2)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		if got := Start(d); !got.Equal(monday) {
			t.Errorf("Start(%v) = %v, want %v", d, got, monday)
		}
		if got := Start(Start(d)); !got.Equal(Start(d)) {
			t.Errorf("Start is not idempotent for %v", d)
		}
	}
}

func TestDates(t *testing.T) {
	t.Parallel()

	got := Dates(date(2025, time.June, 2))
	want := [7]string{
		"2025-06-02", "2025-06-03", "2025-06-04", "2025-06-05",
		"2025-06-06", "2025-06-07", "2025-06-08",
	}
	if got != want {
		t.Errorf("Dates() = %v, want %v", got, want)
	}
}

func TestEnd(t *testing.T) {
	t.Parallel()

	got := End(date(2025, time.June, 4))
	want := date(2025, time.June, 8)
	if !got.Equal(want) {
		t.Errorf("End() = %v, want %v", got, want)
	}
	if got.Weekday() != time.Sunday {
		t.Errorf("End() fell on %v, want Sunday", got.Weekday())
	}
}

func TestMonthStart(t *testing.T) {
	t.Parallel()

	got := MonthStart(time.Date(2025, time.June, 17, 13, 45, 0, 0, time.UTC))
	want := date(2025, time.June, 1)
	if !got.Equal(want) {
		t.Errorf("MonthStart() = %v, want %v", got, want)
	}
}
