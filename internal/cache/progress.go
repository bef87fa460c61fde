package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/progress"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the default lifetime of a cached snapshot.
const DefaultTTL = 5 * time.Minute

// ProgressCache is a Redis-backed read-through cache for progress
// snapshots. The database remains the source of truth; a miss or a
// Redis failure means the caller recomputes from habit data.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressCache creates a cache with the given TTL. A non-positive
// TTL falls back to DefaultTTL.
func NewProgressCache(client *redis.Client, ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProgressCache{client: client, ttl: ttl}
}

func snapshotKey(userID uuid.UUID) string {
	return fmt.Sprintf("progress:%s", userID)
}

// Get returns the cached snapshot for a user, or (nil, nil) on a miss.
func (c *ProgressCache) Get(ctx context.Context, userID uuid.UUID) (*progress.Snapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached snapshot: %w", err)
	}

	var snap progress.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Treat a corrupt entry as a miss so it gets overwritten
		return nil, nil
	}
	return &snap, nil
}

// Set stores a snapshot for a user.
func (c *ProgressCache) Set(ctx context.Context, userID uuid.UUID, snap progress.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// Invalidate drops a user's cached snapshot.
func (c *ProgressCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot: %w", err)
	}
	return nil
}
