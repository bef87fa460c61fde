package progress

import (
	"time"

	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/week"
)

// Snapshot holds the three fixed-window completion percentages used for
// social comparison between friends.
type Snapshot struct {
	Daily   int `json:"daily"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

// FriendSnapshot computes a friend's overall completion for today, the
// current week, and the current month, over their full habit set.
func FriendSnapshot(now time.Time, habits []models.Habit) Snapshot {
	today := NewDateRange(now, now)
	thisWeek := NewDateRange(week.Start(now), week.End(now))
	thisMonth := NewDateRange(week.MonthStart(now), now)

	return Snapshot{
		Daily:   OverallCompletion(habits, today),
		Weekly:  OverallCompletion(habits, thisWeek),
		Monthly: OverallCompletion(habits, thisMonth),
	}
}
