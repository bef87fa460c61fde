package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/database"
	"github.com/mglynn/habitflow/internal/progress"
	"github.com/mglynn/habitflow/internal/queue"
	"go.uber.org/zap"
)

// SnapshotCache is the cache surface the refresher needs.
// cache.ProgressCache implements it; tests substitute a fake.
type SnapshotCache interface {
	Set(ctx context.Context, userID uuid.UUID, snap progress.Snapshot) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// ProgressRefresher processes progress refresh jobs. It recomputes a
// user's snapshot from their habit data and writes it to the cache so
// friend progress reads stay cheap.
type ProgressRefresher struct {
	habitRepo database.HabitRepositoryInterface
	cache     SnapshotCache
	logger    *zap.Logger
	now       func() time.Time
}

// NewProgressRefresher creates a new progress refresher
func NewProgressRefresher(habitRepo database.HabitRepositoryInterface, progressCache SnapshotCache, logger *zap.Logger) *ProgressRefresher {
	return &ProgressRefresher{
		habitRepo: habitRepo,
		cache:     progressCache,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessJob dispatches a job to the matching processor
func (p *ProgressRefresher) ProcessJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeProgressRefresh:
		return p.processRefresh(ctx, job)
	case queue.JobTypeCacheInvalidate:
		return p.processInvalidate(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *ProgressRefresher) processRefresh(ctx context.Context, job *queue.Job) error {
	habits, err := p.habitRepo.GetByUserID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}

	snap := progress.FriendSnapshot(p.now(), habits)

	if err := p.cache.Set(ctx, job.UserID, snap); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}

	p.logger.Info("progress_refreshed",
		zap.String("user_id", job.UserID.String()),
		zap.Int("habit_count", len(habits)),
		zap.Int("daily", snap.Daily),
		zap.Int("weekly", snap.Weekly),
		zap.Int("monthly", snap.Monthly),
	)
	return nil
}

func (p *ProgressRefresher) processInvalidate(ctx context.Context, job *queue.Job) error {
	if err := p.cache.Invalidate(ctx, job.UserID); err != nil {
		return fmt.Errorf("failed to invalidate snapshot: %w", err)
	}

	p.logger.Info("progress_cache_invalidated", zap.String("user_id", job.UserID.String()))
	return nil
}
