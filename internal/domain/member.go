package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin    = "ADMIN"
	RoleMember   = "MEMBER"
	RoleHomeroom = "HOMEROOM"
)

// Principal is the already-authenticated actor performing an operation.
// It is resolved by the transport layer (JWT middleware) and passed into
// every service call; services never touch credentials themselves.
type Principal struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	Kelas  string    `json:"kelas,omitempty"`
}

// Resolved reports whether the principal carries an authenticated identity.
func (p Principal) Resolved() bool {
	return p.UserID != uuid.Nil
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsMember() bool {
	return p.Role == RoleMember
}

// Member represents a library member (student or staff)
type Member struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	Kelas     string    `json:"kelas" db:"kelas"`
	NIS       string    `json:"nis" db:"nis"`
	Contact   string    `json:"contact" db:"contact"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateMemberRequest struct {
	Name    string `json:"name" validate:"required"`
	Role    string `json:"role" validate:"required,oneof=ADMIN MEMBER HOMEROOM"`
	Kelas   string `json:"kelas"`
	NIS     string `json:"nis"`
	Contact string `json:"contact"`
}

type UpdateMemberRequest struct {
	Name    string `json:"name" validate:"required"`
	Kelas   string `json:"kelas"`
	Contact string `json:"contact"`
}
