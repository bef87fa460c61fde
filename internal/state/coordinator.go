// Package state holds the in-memory habit collection for a user and
// coordinates mutations against the remote store. Structural mutations
// (create, update, delete) persist first and leave local state untouched
// on failure; cheap-to-rederive mutations (status, order) apply
// optimistically and recover from a failed write by reloading
// authoritative state from the store.
package state

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/ledger"
	"github.com/mglynn/habitflow/internal/models"
	"go.uber.org/zap"
)

// Store is the remote persistence boundary the coordinator writes
// through. *database.HabitRepository satisfies it.
type Store interface {
	Create(ctx context.Context, habit *models.Habit) error
	UpdateFields(ctx context.Context, id uuid.UUID, patch models.HabitPatch) error
	UpdateProgress(ctx context.Context, id uuid.UUID, progress []models.WeeklyRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	BatchUpdateOrder(ctx context.Context, updates []models.OrderUpdate) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Habit, error)
}

// opPhase tracks an optimistic mutation through its two-phase protocol
type opPhase int

const (
	opIdle opPhase = iota
	opPending
	opConfirmed
	opInvalidated
)

// pendingOp is the token for one in-flight optimistic mutation. It holds
// the prior state only for observability; recovery is always
// rollback-by-reload, never an inverse operation.
type pendingOp struct {
	name  string
	phase opPhase
}

func beginOp(name string) *pendingOp {
	return &pendingOp{name: name, phase: opPending}
}

func (op *pendingOp) confirm()    { op.phase = opConfirmed }
func (op *pendingOp) invalidate() { op.phase = opInvalidated }

// Coordinator owns one user's in-memory habit collection. It is the
// only writer of that collection; readers get copies.
type Coordinator struct {
	store  Store
	log    *zap.Logger
	userID uuid.UUID
	habits []models.Habit
	now    func() time.Time
}

// NewCoordinator creates a coordinator seeded with the user's habits
func NewCoordinator(store Store, log *zap.Logger, userID uuid.UUID, habits []models.Habit) *Coordinator {
	return &Coordinator{
		store:  store,
		log:    log,
		userID: userID,
		habits: habits,
		now:    time.Now,
	}
}

// Habits returns a deep copy of the current collection
func (c *Coordinator) Habits() []models.Habit {
	out := make([]models.Habit, len(c.habits))
	for i, h := range c.habits {
		out[i] = h.Clone()
	}
	return out
}

// Reload discards local state and re-fetches the authoritative
// collection from the store.
func (c *Coordinator) Reload(ctx context.Context) error {
	habits, err := c.store.GetByUserID(ctx, c.userID)
	if err != nil {
		return &PersistenceError{Op: "reload", Err: err}
	}
	c.habits = habits
	return nil
}

// Create persists a new habit seeded with the current week's record and
// appends it to local state. Order is max(existing)+1 so gaps left by
// deletions are never reused as collisions. On persistence failure local
// state is not touched.
func (c *Coordinator) Create(ctx context.Context, draft models.Habit) (models.Habit, error) {
	if draft.Name == "" {
		return models.Habit{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if draft.Target <= 0 {
		return models.Habit{}, &ValidationError{Field: "target", Reason: "must be positive"}
	}

	habit := draft.Clone()
	habit.ID = uuid.New()
	habit.UserID = c.userID
	habit.CreatedAt = c.now()
	habit.WeeklyProgress = []models.WeeklyRecord{ledger.NewWeek(habit.CreatedAt)}

	maxOrder := 0
	for _, h := range c.habits {
		if h.Order > maxOrder {
			maxOrder = h.Order
		}
	}
	habit.Order = maxOrder + 1

	if err := c.store.Create(ctx, &habit); err != nil {
		return models.Habit{}, &PersistenceError{Op: "create", Err: err}
	}

	c.habits = append([]models.Habit{habit}, c.habits...)
	c.log.Info("habit_created",
		zap.String("habit_id", habit.ID.String()),
		zap.Int("order", habit.Order),
	)
	return habit, nil
}

// UpdateFields persists a partial update, then applies the same partial
// merge locally. Persist-first: failure leaves local state untouched.
func (c *Coordinator) UpdateFields(ctx context.Context, id uuid.UUID, patch models.HabitPatch) (models.Habit, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return models.Habit{}, &NotFoundError{Kind: "habit", ID: id.String()}
	}
	if patch.Name != nil && *patch.Name == "" {
		return models.Habit{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if patch.Target != nil && *patch.Target <= 0 {
		return models.Habit{}, &ValidationError{Field: "target", Reason: "must be positive"}
	}

	if err := c.store.UpdateFields(ctx, id, patch); err != nil {
		return models.Habit{}, &PersistenceError{Op: "update", Err: err}
	}

	c.habits[idx] = patch.Apply(c.habits[idx])
	return c.habits[idx].Clone(), nil
}

// Delete persists the deletion, then removes the aggregate locally
func (c *Coordinator) Delete(ctx context.Context, id uuid.UUID) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return &NotFoundError{Kind: "habit", ID: id.String()}
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}

	c.habits = append(c.habits[:idx], c.habits[idx+1:]...)
	c.log.Info("habit_deleted", zap.String("habit_id", id.String()))
	return nil
}

// SetStatus applies the day-status change to local state immediately,
// then persists the full updated ledger. On failure the optimistic
// change is discarded by reloading authoritative state from the store.
func (c *Coordinator) SetStatus(ctx context.Context, id uuid.UUID, date string, status models.DayStatus) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return &NotFoundError{Kind: "habit", ID: id.String()}
	}

	op := beginOp("set_status")
	c.habits[idx] = ledger.SetDayStatus(c.habits[idx], date, status)

	if err := c.store.UpdateProgress(ctx, id, c.habits[idx].WeeklyProgress); err != nil {
		op.invalidate()
		c.log.Warn("set_status_failed_reloading",
			zap.String("habit_id", id.String()),
			zap.Error(err),
		)
		if reloadErr := c.Reload(ctx); reloadErr != nil {
			c.log.Error("rollback_reload_failed", zap.Error(reloadErr))
		}
		return &SyncError{Op: op.name, Err: err}
	}

	op.confirm()
	return nil
}

// Reorder moves sourceID to destinationID's position (splice semantics:
// the moved habit takes exactly the target's old index and everything
// between shifts by one), reassigns order = positional index for every
// habit, applies locally, then persists all changed orders as one atomic
// batch. On failure, rollback-by-reload.
func (c *Coordinator) Reorder(ctx context.Context, sourceID, destinationID uuid.UUID) error {
	srcIdx := c.indexOf(sourceID)
	dstIdx := c.indexOf(destinationID)
	if srcIdx < 0 {
		return &NotFoundError{Kind: "habit", ID: sourceID.String()}
	}
	if dstIdx < 0 {
		return &NotFoundError{Kind: "habit", ID: destinationID.String()}
	}

	op := beginOp("reorder")
	prior := c.habits

	reordered := make([]models.Habit, 0, len(prior))
	reordered = append(reordered, prior[:srcIdx]...)
	reordered = append(reordered, prior[srcIdx+1:]...)
	moved := prior[srcIdx]
	reordered = append(reordered[:dstIdx], append([]models.Habit{moved}, reordered[dstIdx:]...)...)

	updates := make([]models.OrderUpdate, 0, len(reordered))
	for i := range reordered {
		reordered[i].Order = i
		updates = append(updates, models.OrderUpdate{ID: reordered[i].ID, Order: i})
	}
	c.habits = reordered

	if err := c.store.BatchUpdateOrder(ctx, updates); err != nil {
		op.invalidate()
		c.log.Warn("reorder_failed_reloading", zap.Error(err))
		if reloadErr := c.Reload(ctx); reloadErr != nil {
			c.log.Error("rollback_reload_failed", zap.Error(reloadErr))
		}
		return &SyncError{Op: op.name, Err: err}
	}

	op.confirm()
	return nil
}

// SeedWeek makes sure every habit has a record for the week containing
// now, so a fresh week renders with 7 neutral days. Purely local; the
// record is persisted the first time a status is set in it.
func (c *Coordinator) SeedWeek(now time.Time) {
	for i := range c.habits {
		c.habits[i], _ = ledger.GetOrCreateWeek(c.habits[i], now)
	}
}

func (c *Coordinator) indexOf(id uuid.UUID) int {
	for i, h := range c.habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
