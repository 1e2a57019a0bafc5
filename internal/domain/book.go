package domain

import (
	"time"

	"github.com/google/uuid"
)

// Book represents a catalog item. Stock counts the physical copies currently
// available on the shelf; it is mutated only by the borrowing engine.
type Book struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Author        string     `json:"author" db:"author"`
	Category      string     `json:"category" db:"category"`
	ShelfID       *uuid.UUID `json:"shelf_id,omitempty" db:"shelf_id"`
	Stock         int        `json:"stock" db:"stock"`
	PublishedYear int        `json:"published_year" db:"published_year"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Bookshelf is a physical shelf (rak) grouping books.
type Bookshelf struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Location string    `json:"location" db:"location"`
}

// DTOs for requests and responses

type CreateBookRequest struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	Category      string `json:"category"`
	ShelfID       string `json:"shelf_id" validate:"omitempty,uuid"`
	Stock         int    `json:"stock" validate:"gte=0"`
	PublishedYear int    `json:"published_year"`
}

type UpdateBookRequest struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	Category      string `json:"category"`
	ShelfID       string `json:"shelf_id" validate:"omitempty,uuid"`
	Stock         int    `json:"stock" validate:"gte=0"`
	PublishedYear int    `json:"published_year"`
}

type ShelfRequest struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
}
