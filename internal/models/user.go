package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user profile in the system
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	ProviderID  *string   `json:"-"`
	DisplayName string    `json:"displayName"`
	PhotoURL    *string   `json:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}
