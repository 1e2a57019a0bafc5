package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/perpusku/library-engine/internal/domain"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) CreateWithStockDecrement(ctx context.Context, loan *domain.Loan, enforceSingleActive bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if enforceSingleActive {
		// Lock the member row so two concurrent borrows by the same member
		// serialize on the single-active-loan check.
		var memberID uuid.UUID
		err = tx.GetContext(ctx, &memberID, `SELECT id FROM members WHERE id = $1 FOR UPDATE`, loan.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrMemberNotFound
		}
		if err != nil {
			return err
		}

		var active int
		err = tx.GetContext(ctx, &active,
			`SELECT COUNT(*) FROM loans WHERE user_id = $1 AND status = $2`,
			loan.UserID, domain.LoanStatusActive,
		)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperrors.ErrActiveLoanExists
		}
	}

	// Lock the book row: the stock check and decrement must be one unit, so
	// two borrows of the last copy cannot both pass.
	var stock int
	err = tx.GetContext(ctx, &stock, `SELECT stock FROM books WHERE id = $1 FOR UPDATE`, loan.BookID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrBookNotFound
	}
	if err != nil {
		return err
	}
	if stock <= 0 {
		return apperrors.ErrBookUnavailable
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE books SET stock = stock - 1, updated_at = $2 WHERE id = $1`,
		loan.BookID, loan.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loans (id, book_id, user_id, borrow_date, due_date, return_date, status, penalty_type, penalty_book_id, penalty_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6, NULL, NULL, NULL, $7, $7)
	`,
		loan.ID,
		loan.BookID,
		loan.UserID,
		loan.BorrowDate,
		loan.DueDate,
		loan.Status,
		loan.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT id, book_id, user_id, borrow_date, due_date, return_date, status, penalty_type, penalty_book_id, penalty_note, created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

const loanViewColumns = `
	l.id, l.book_id, l.user_id, l.borrow_date, l.due_date, l.return_date, l.status,
	l.penalty_type, l.penalty_book_id, l.penalty_note, l.created_at, l.updated_at,
	b.title AS book_title, b.author AS book_author,
	m.name AS member_name, m.kelas AS member_kelas
`

func (r *loanRepository) List(ctx context.Context, q LoanQuery) ([]*domain.LoanView, error) {
	query := `
		SELECT ` + loanViewColumns + `
		FROM loans l
		JOIN books b ON l.book_id = b.id
		JOIN members m ON l.user_id = m.id
		WHERE 1=1
	`
	args := []interface{}{}
	n := 0

	arg := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if q.UserID != nil {
		query += " AND l.user_id = " + arg(*q.UserID)
	}
	if q.Status != "" {
		query += " AND l.status = " + arg(q.Status)
	}
	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		if q.SearchMember {
			query += fmt.Sprintf(" AND (b.title ILIKE %s OR b.author ILIKE %s OR m.name ILIKE %s)", p, p, p)
		} else {
			query += fmt.Sprintf(" AND (b.title ILIKE %s OR b.author ILIKE %s)", p, p)
		}
	}
	if q.From != nil {
		query += " AND l.borrow_date >= " + arg(*q.From)
	}
	if q.To != nil {
		query += " AND l.borrow_date <= " + arg(*q.To)
	}

	query += " ORDER BY l.borrow_date DESC"

	var loans []*domain.LoanView
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) CompleteReturn(ctx context.Context, loanID uuid.UUID, returnDate time.Time, penalty *domain.PenaltyAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var penaltyType *string
	var penaltyBookID *uuid.UUID
	var penaltyNote *string
	if penalty != nil {
		t := domain.PenaltyTypeAnalysisTask
		penaltyType = &t
		penaltyBookID = &penalty.BookID
		penaltyNote = penalty.Note
	}

	// Conditional flip: only an ACTIVE loan can be returned, so of two
	// concurrent returns exactly one sees a row.
	var bookID uuid.UUID
	err = tx.GetContext(ctx, &bookID, `
		UPDATE loans
		SET status = $2, return_date = $3, penalty_type = $4, penalty_book_id = $5, penalty_note = $6, updated_at = $3
		WHERE id = $1 AND status = $7
		RETURNING book_id
	`,
		loanID,
		domain.LoanStatusReturned,
		returnDate,
		penaltyType,
		penaltyBookID,
		penaltyNote,
		domain.LoanStatusActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		var status string
		err = tx.GetContext(ctx, &status, `SELECT status FROM loans WHERE id = $1`, loanID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrLoanNotFound
		}
		if err != nil {
			return err
		}
		return apperrors.ErrLoanAlreadyReturned
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE books SET stock = stock + 1, updated_at = $2 WHERE id = $1`,
		bookID, returnDate,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) CountActiveByBook(ctx context.Context, bookID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM loans WHERE book_id = $1 AND status = $2`,
		bookID, domain.LoanStatusActive,
	)
	return count, err
}

func (r *loanRepository) CountActiveByMember(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM loans WHERE user_id = $1 AND status = $2`,
		userID, domain.LoanStatusActive,
	)
	return count, err
}

func (r *loanRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM loans WHERE status = $1`, status)
	return count, err
}

func (r *loanRepository) ListByKelas(ctx context.Context, kelas string) ([]*domain.LoanView, error) {
	query := `
		SELECT ` + loanViewColumns + `
		FROM loans l
		JOIN books b ON l.book_id = b.id
		JOIN members m ON l.user_id = m.id
		WHERE m.kelas = $1
		ORDER BY l.borrow_date DESC
	`

	var loans []*domain.LoanView
	if err := r.db.SelectContext(ctx, &loans, query, kelas); err != nil {
		return nil, err
	}

	return loans, nil
}
