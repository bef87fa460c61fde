package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/state"
)

// HabitRepositoryInterface defines habit repository operations used by
// consumers that want a mockable boundary (workers, CLI).
type HabitRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Habit, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Habit, error)
}

// FriendRepositoryInterface defines friend-edge repository operations
type FriendRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Friend, error)
	GetAcceptedInbound(ctx context.Context, userID uuid.UUID) ([]models.Friend, error)
	FindEdge(ctx context.Context, userID, friendID uuid.UUID) (*models.Friend, error)
}

// Ensure concrete types implement the interfaces
var (
	_ HabitRepositoryInterface  = (*HabitRepository)(nil)
	_ FriendRepositoryInterface = (*FriendRepository)(nil)
	_ state.Store               = (*HabitRepository)(nil)
)
