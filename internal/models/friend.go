package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendStatus represents the state of a friend edge
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// Friend is a directed friendship edge from UserID to FriendID.
// Mutual friendship is two independent edges, one per direction.
type Friend struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"userId"`
	FriendID  uuid.UUID    `json:"friendId"`
	Status    FriendStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// FriendProgress is a friend's completion percentages for the three
// fixed social-comparison windows
type FriendProgress struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	PhotoURL    *string   `json:"photoURL,omitempty"`
	Daily       int       `json:"daily"`
	Weekly      int       `json:"weekly"`
	Monthly     int       `json:"monthly"`
}
