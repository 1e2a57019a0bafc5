package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a polled in-app message for a member (borrow receipts,
// due-date reminders, penalty notices).
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
