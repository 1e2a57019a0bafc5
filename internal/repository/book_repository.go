package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/perpusku/library-engine/internal/domain"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

type bookRepository struct {
	db *sqlx.DB
}

func NewBookRepository(db *sqlx.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (id, title, author, category, shelf_id, stock, published_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Category,
		book.ShelfID,
		book.Stock,
		book.PublishedYear,
		book.CreatedAt,
		book.UpdatedAt,
	)

	return err
}

func (r *bookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	query := `
		SELECT id, title, author, category, shelf_id, stock, published_year, created_at, updated_at
		FROM books
		WHERE id = $1
	`

	var book domain.Book
	err := r.db.GetContext(ctx, &book, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}

	return &book, nil
}

func (r *bookRepository) List(ctx context.Context, search string) ([]*domain.Book, error) {
	query := `
		SELECT id, title, author, category, shelf_id, stock, published_year, created_at, updated_at
		FROM books
	`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE title ILIKE $1 OR author ILIKE $1 OR category ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY title`

	var books []*domain.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, err
	}

	return books, nil
}

func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	query := `
		UPDATE books
		SET title = $2, author = $3, category = $4, shelf_id = $5, stock = $6, published_year = $7, updated_at = $8
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Category,
		book.ShelfID,
		book.Stock,
		book.PublishedYear,
		book.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrBookNotFound
	}

	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrBookNotFound
	}

	return nil
}

func (r *bookRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM books`)
	return count, err
}

func (r *bookRepository) CreateShelf(ctx context.Context, shelf *domain.Bookshelf) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookshelves (id, name, location) VALUES ($1, $2, $3)`,
		shelf.ID, shelf.Name, shelf.Location,
	)
	return err
}

func (r *bookRepository) ListShelves(ctx context.Context) ([]*domain.Bookshelf, error) {
	var shelves []*domain.Bookshelf
	err := r.db.SelectContext(ctx, &shelves, `SELECT id, name, location FROM bookshelves ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return shelves, nil
}

func (r *bookRepository) UpdateShelf(ctx context.Context, shelf *domain.Bookshelf) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookshelves SET name = $2, location = $3 WHERE id = $1`,
		shelf.ID, shelf.Name, shelf.Location,
	)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrShelfNotFound
	}

	return nil
}

func (r *bookRepository) DeleteShelf(ctx context.Context, id uuid.UUID) error {
	// Books keep existing when their shelf goes away; the reference clears.
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `UPDATE books SET shelf_id = NULL WHERE shelf_id = $1`, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM bookshelves WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrShelfNotFound
	}

	return tx.Commit()
}
