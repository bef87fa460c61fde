package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/progress"
	"github.com/mglynn/habitflow/internal/queue"
	"go.uber.org/zap"
)

type fakeHabitRepo struct {
	habits []models.Habit
	err    error
}

func (f *fakeHabitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Habit, error) {
	for i := range f.habits {
		if f.habits[i].ID == id {
			return &f.habits[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeHabitRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Habit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.habits, nil
}

type fakeSnapshotCache struct {
	sets        map[uuid.UUID]progress.Snapshot
	invalidated []uuid.UUID
	setErr      error
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{sets: make(map[uuid.UUID]progress.Snapshot)}
}

func (f *fakeSnapshotCache) Set(ctx context.Context, userID uuid.UUID, snap progress.Snapshot) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets[userID] = snap
	return nil
}

func (f *fakeSnapshotCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func weekOf(startDate string, statuses map[string]models.DayStatus) models.WeeklyRecord {
	start, _ := time.Parse("2006-01-02", startDate)
	rec := models.WeeklyRecord{StartDate: startDate}
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		status := models.DayStatusNeutral
		if s, ok := statuses[date]; ok {
			status = s
		}
		rec.Days = append(rec.Days, models.DayEntry{Date: date, Status: status})
	}
	return rec
}

func TestProgressRefresher_Refresh(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	// Wednesday; the surrounding week starts on Monday 2025-03-03
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

	habit := models.Habit{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "Stretch",
		Frequency: models.FrequencyDaily,
		WeeklyProgress: []models.WeeklyRecord{
			weekOf("2025-03-03", map[string]models.DayStatus{
				"2025-03-03": models.DayStatusCompleted,
				"2025-03-04": models.DayStatusCompleted,
				"2025-03-05": models.DayStatusCompleted,
			}),
		},
	}

	repo := &fakeHabitRepo{habits: []models.Habit{habit}}
	cache := newFakeSnapshotCache()
	refresher := NewProgressRefresher(repo, cache, zap.NewNop())
	refresher.now = func() time.Time { return now }

	job := queue.NewJob(queue.JobTypeProgressRefresh, userID, nil)
	if err := refresher.ProcessJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	snap, ok := cache.sets[userID]
	if !ok {
		t.Fatal("Expected snapshot to be cached")
	}

	// Daily window covers one completed day; the weekly window has
	// 3 of 7 days completed; the monthly window only sees the three
	// in-month days, all completed.
	if snap.Daily != 100 {
		t.Errorf("Expected daily 100, got %d", snap.Daily)
	}
	if snap.Weekly != 43 {
		t.Errorf("Expected weekly 43, got %d", snap.Weekly)
	}
	if snap.Monthly != 100 {
		t.Errorf("Expected monthly 100, got %d", snap.Monthly)
	}
}

func TestProgressRefresher_RefreshLoadError(t *testing.T) {
	t.Parallel()

	repo := &fakeHabitRepo{err: errors.New("connection refused")}
	cache := newFakeSnapshotCache()
	refresher := NewProgressRefresher(repo, cache, zap.NewNop())

	job := queue.NewJob(queue.JobTypeProgressRefresh, uuid.New(), nil)
	if err := refresher.ProcessJob(context.Background(), job); err == nil {
		t.Fatal("Expected error when habit load fails")
	}

	if len(cache.sets) != 0 {
		t.Error("Expected no snapshot to be cached on failure")
	}
}

func TestProgressRefresher_Invalidate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &fakeHabitRepo{}
	cache := newFakeSnapshotCache()
	refresher := NewProgressRefresher(repo, cache, zap.NewNop())

	job := queue.NewJob(queue.JobTypeCacheInvalidate, userID, nil)
	if err := refresher.ProcessJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	if len(cache.invalidated) != 1 || cache.invalidated[0] != userID {
		t.Errorf("Expected invalidation for %s, got %v", userID, cache.invalidated)
	}
}

func TestProgressRefresher_UnknownJobType(t *testing.T) {
	t.Parallel()

	refresher := NewProgressRefresher(&fakeHabitRepo{}, newFakeSnapshotCache(), zap.NewNop())

	job := queue.NewJob(queue.JobType("unknown"), uuid.New(), nil)
	if err := refresher.ProcessJob(context.Background(), job); err == nil {
		t.Fatal("Expected error for unknown job type")
	}
}
