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

type progressRepository struct {
	db *sqlx.DB
}

func NewProgressRepository(db *sqlx.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Upsert(ctx context.Context, progress *domain.ReadingProgress) error {
	query := `
		INSERT INTO reading_progress (id, loan_id, user_id, pages_read, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (loan_id)
		DO UPDATE SET pages_read = EXCLUDED.pages_read, note = EXCLUDED.note, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		progress.ID,
		progress.LoanID,
		progress.UserID,
		progress.PagesRead,
		progress.Note,
		progress.UpdatedAt,
	)

	return err
}

func (r *progressRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) (*domain.ReadingProgress, error) {
	query := `
		SELECT id, loan_id, user_id, pages_read, note, created_at, updated_at
		FROM reading_progress
		WHERE loan_id = $1
	`

	var progress domain.ReadingProgress
	err := r.db.GetContext(ctx, &progress, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}

	return &progress, nil
}

func (r *progressRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.ReadingProgress, error) {
	query := `
		SELECT id, loan_id, user_id, pages_read, note, created_at, updated_at
		FROM reading_progress
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	var entries []*domain.ReadingProgress
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, err
	}

	return entries, nil
}
