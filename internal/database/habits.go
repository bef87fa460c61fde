package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/models"
)

// HabitRepository handles habit database operations. The weekly
// progress ledger is stored as a JSONB column in the contractual wire
// shape so the whole aggregate round-trips as one row.
type HabitRepository struct {
	db *DB
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db *DB) *HabitRepository {
	return &HabitRepository{db: db}
}

// Create creates a new habit with its seeded weekly record
func (r *HabitRepository) Create(ctx context.Context, habit *models.Habit) error {
	query := `
		INSERT INTO habits (id, user_id, name, description, frequency, target, tags, color, weekly_progress, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`

	tagsJSON, err := json.Marshal(habit.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	progressJSON, err := json.Marshal(habit.WeeklyProgress)
	if err != nil {
		return fmt.Errorf("failed to marshal weekly progress: %w", err)
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		habit.ID,
		habit.UserID,
		habit.Name,
		habit.Description,
		habit.Frequency,
		habit.Target,
		tagsJSON,
		habit.Color,
		progressJSON,
		habit.Order,
		habit.CreatedAt,
		now,
	).Scan(&habit.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}

	return nil
}

// GetByID retrieves a habit by ID
func (r *HabitRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Habit, error) {
	query := `
		SELECT id, user_id, name, description, frequency, target, tags, color, weekly_progress, sort_order, created_at
		FROM habits
		WHERE id = $1
	`

	habit, err := scanHabit(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("habit not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return habit, nil
}

// GetByUserID retrieves all habits for a user in display order:
// sort_order ascending, then created_at descending.
func (r *HabitRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Habit, error) {
	query := `
		SELECT id, user_id, name, description, frequency, target, tags, color, weekly_progress, sort_order, created_at
		FROM habits
		WHERE user_id = $1
		ORDER BY sort_order ASC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, *habit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	return habits, nil
}

// UpdateFields applies a partial update, writing only the fields the
// patch carries.
func (r *HabitRepository) UpdateFields(ctx context.Context, id uuid.UUID, patch models.HabitPatch) error {
	query, args, err := buildPatchQuery(id, patch)
	if err != nil {
		return err
	}
	if query == "" {
		// Nothing to update.
		return nil
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("habit not found")
	}

	return nil
}

// buildPatchQuery assembles the dynamic SET clause for a partial habit
// update. Returns an empty query when the patch carries no fields.
func buildPatchQuery(id uuid.UUID, patch models.HabitPatch) (string, []any, error) {
	sets := []string{}
	args := []any{id}
	argIndex := 2

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Frequency != nil {
		add("frequency", string(*patch.Frequency))
	}
	if patch.Target != nil {
		add("target", *patch.Target)
	}
	if patch.Tags != nil {
		tagsJSON, err := json.Marshal(*patch.Tags)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal tags: %w", err)
		}
		add("tags", tagsJSON)
	}
	if patch.Color != nil {
		add("color", *patch.Color)
	}

	if len(sets) == 0 {
		return "", nil, nil
	}

	add("updated_at", time.Now())

	query := "UPDATE habits SET "
	for i, s := range sets {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += " WHERE id = $1"
	return query, args, nil
}

// UpdateProgress writes the full weekly-progress ledger for a habit.
// Used by the optimistic status mutation, which persists the whole
// updated ledger rather than a single day.
func (r *HabitRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress []models.WeeklyRecord) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal weekly progress: %w", err)
	}

	query := `UPDATE habits SET weekly_progress = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, progressJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update habit progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("habit not found")
	}

	return nil
}

// Delete deletes a habit and its records by ID
func (r *HabitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM habits WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("habit not found")
	}

	return nil
}

// BatchUpdateOrder persists all changed sort orders in one transaction.
// Partial application of a reorder batch is never observable: any
// failure rolls the whole batch back.
func (r *HabitRepository) BatchUpdateOrder(ctx context.Context, updates []models.OrderUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `UPDATE habits SET sort_order = $2, updated_at = $3 WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare order update: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.ID, u.Order, now); err != nil {
			return fmt.Errorf("failed to update order for %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order batch: %w", err)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(s scanner) (*models.Habit, error) {
	habit := &models.Habit{}
	var description sql.NullString
	var tagsJSON, progressJSON []byte

	err := s.Scan(
		&habit.ID,
		&habit.UserID,
		&habit.Name,
		&description,
		&habit.Frequency,
		&habit.Target,
		&tagsJSON,
		&habit.Color,
		&progressJSON,
		&habit.Order,
		&habit.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		habit.Description = description.String
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &habit.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if len(progressJSON) > 0 {
		if err := json.Unmarshal(progressJSON, &habit.WeeklyProgress); err != nil {
			return nil, fmt.Errorf("failed to unmarshal weekly progress: %w", err)
		}
	}

	return habit, nil
}
