package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReadingProgress records how far a member has read into a borrowed book.
// One row per loan, upserted as the member reads.
type ReadingProgress struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LoanID    uuid.UUID `json:"loan_id" db:"loan_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	PagesRead int       `json:"pages_read" db:"pages_read"`
	Note      string    `json:"note" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type RecordProgressRequest struct {
	PagesRead int    `json:"pages_read" validate:"required,gt=0"`
	Note      string `json:"note"`
}
