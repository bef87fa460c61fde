package models

import (
	"time"

	"github.com/google/uuid"
)

// Frequency represents how often a habit is meant to be done
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// DayStatus represents the completion state of a single day.
// Neutral is a true third state, not absence of data.
type DayStatus string

const (
	DayStatusNeutral   DayStatus = "neutral"
	DayStatusCompleted DayStatus = "completed"
	DayStatusFailed    DayStatus = "failed"
)

// DayEntry is one day's status inside a weekly record
type DayEntry struct {
	Date   string    `json:"date"` // YYYY-MM-DD
	Status DayStatus `json:"status"`
}

// WeeklyRecord is the 7-day completion ledger for one Monday-start week
type WeeklyRecord struct {
	StartDate string     `json:"startDate"` // YYYY-MM-DD, always a Monday
	Days      []DayEntry `json:"days"`
}

// Habit represents a tracked recurring activity with its weekly ledgers
type Habit struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"userId"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Frequency      Frequency      `json:"frequency"`
	Target         int            `json:"target"`
	Tags           []string       `json:"tags"`
	Color          string         `json:"color"`
	CreatedAt      time.Time      `json:"createdAt"`
	WeeklyProgress []WeeklyRecord `json:"weeklyProgress"`
	Order          int            `json:"order"`
}

// HabitPatch is a partial update to a habit's editable fields.
// Nil pointers mean "leave unchanged".
type HabitPatch struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Frequency   *Frequency `json:"frequency,omitempty"`
	Target      *int       `json:"target,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Color       *string    `json:"color,omitempty"`
}

// Apply returns a copy of h with the patch's non-nil fields merged in
func (p HabitPatch) Apply(h Habit) Habit {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.Target != nil {
		h.Target = *p.Target
	}
	if p.Tags != nil {
		h.Tags = append([]string(nil), *p.Tags...)
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	return h
}

// OrderUpdate is one habit's new sort position, used for batch reorder writes
type OrderUpdate struct {
	ID    uuid.UUID `json:"id"`
	Order int       `json:"order"`
}

// Clone returns a deep copy of the habit, including all weekly records
func (h Habit) Clone() Habit {
	out := h
	out.Tags = append([]string(nil), h.Tags...)
	out.WeeklyProgress = CloneProgress(h.WeeklyProgress)
	return out
}

// CloneProgress returns a deep copy of a weekly progress ledger
func CloneProgress(records []WeeklyRecord) []WeeklyRecord {
	if records == nil {
		return nil
	}
	out := make([]WeeklyRecord, len(records))
	for i, rec := range records {
		out[i] = WeeklyRecord{
			StartDate: rec.StartDate,
			Days:      append([]DayEntry(nil), rec.Days...),
		}
	}
	return out
}
