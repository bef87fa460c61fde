package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/models"
)

// FriendRepository handles friend-edge database operations. Edges are
// directed; mutual friendship is two independent rows.
type FriendRepository struct {
	db *DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// Create inserts a new pending edge from userID to friendID
func (r *FriendRepository) Create(ctx context.Context, edge *models.Friend) error {
	query := `
		INSERT INTO friends (id, user_id, friend_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		edge.ID,
		edge.UserID,
		edge.FriendID,
		edge.Status,
		time.Now(),
	).Scan(&edge.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create friend edge: %w", err)
	}

	return nil
}

// GetByUserID retrieves all outbound edges for a user
func (r *FriendRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at
		FROM friends
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryEdges(ctx, query, userID)
}

// GetAcceptedInbound retrieves accepted edges pointing at the user.
// Acceptance flips only the requester's edge, so the accepter's friend
// list has to read both directions to see the relationship.
func (r *FriendRepository) GetAcceptedInbound(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at
		FROM friends
		WHERE friend_id = $1 AND status = $2
		ORDER BY created_at DESC
	`
	return r.queryEdges(ctx, query, userID, models.FriendStatusAccepted)
}

// FindEdge retrieves the single edge from userID to friendID, or nil if
// no such edge exists.
func (r *FriendRepository) FindEdge(ctx context.Context, userID, friendID uuid.UUID) (*models.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at
		FROM friends
		WHERE user_id = $1 AND friend_id = $2
	`

	edge := &models.Friend{}
	err := r.db.QueryRowContext(ctx, query, userID, friendID).Scan(
		&edge.ID,
		&edge.UserID,
		&edge.FriendID,
		&edge.Status,
		&edge.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find friend edge: %w", err)
	}

	return edge, nil
}

// UpdateStatus updates the status of one edge by ID
func (r *FriendRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FriendStatus) error {
	query := `UPDATE friends SET status = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update friend edge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("friend edge not found")
	}

	return nil
}

// Delete removes one edge by ID
func (r *FriendRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM friends WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete friend edge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("friend edge not found")
	}

	return nil
}

func (r *FriendRepository) queryEdges(ctx context.Context, query string, args ...any) ([]models.Friend, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friend edges: %w", err)
	}
	defer rows.Close()

	var edges []models.Friend
	for rows.Next() {
		var edge models.Friend
		err := rows.Scan(
			&edge.ID,
			&edge.UserID,
			&edge.FriendID,
			&edge.Status,
			&edge.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friend edges: %w", err)
	}

	return edges, nil
}
