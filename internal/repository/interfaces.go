package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/perpusku/library-engine/internal/domain"
)

// LoanQuery narrows a loan listing. A nil UserID means all members.
// Status filters on the stored status only; derived OVERDUE relabeling
// happens above the repository.
type LoanQuery struct {
	UserID       *uuid.UUID
	Status       string
	Search       string
	SearchMember bool
	From         *time.Time
	To           *time.Time
}

// LoanRepository defines the interface for loan data operations. The two
// mutating calls are transactional: loan row and book stock move together
// or not at all.
type LoanRepository interface {
	// CreateWithStockDecrement inserts the loan and decrements the book's
	// stock in one transaction. With enforceSingleActive it also serializes
	// on the member row and rejects a second concurrent active loan.
	CreateWithStockDecrement(ctx context.Context, loan *domain.Loan, enforceSingleActive bool) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// List retrieves loans joined with book and member, newest borrow first
	List(ctx context.Context, q LoanQuery) ([]*domain.LoanView, error)

	// CompleteReturn flips the loan to RETURNED and increments the book's
	// stock in one transaction. The flip is conditional on the loan still
	// being ACTIVE, so a concurrent double return fails cleanly.
	CompleteReturn(ctx context.Context, loanID uuid.UUID, returnDate time.Time, penalty *domain.PenaltyAssignment) error

	// CountActiveByBook counts ACTIVE loans referencing a book
	CountActiveByBook(ctx context.Context, bookID uuid.UUID) (int, error)

	// CountActiveByMember counts ACTIVE loans held by a member
	CountActiveByMember(ctx context.Context, userID uuid.UUID) (int, error)

	// CountByStatus counts loans with the given stored status
	CountByStatus(ctx context.Context, status string) (int, error)

	// ListByKelas retrieves all loans of members in a class
	ListByKelas(ctx context.Context, kelas string) ([]*domain.LoanView, error)
}

// BookRepository defines the interface for catalog data operations
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	List(ctx context.Context, search string) ([]*domain.Book, error)
	Update(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)

	CreateShelf(ctx context.Context, shelf *domain.Bookshelf) error
	ListShelves(ctx context.Context) ([]*domain.Bookshelf, error)
	UpdateShelf(ctx context.Context, shelf *domain.Bookshelf) error
	DeleteShelf(ctx context.Context, id uuid.UUID) error
}

// MemberRepository defines the interface for member data operations
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	List(ctx context.Context, search string) ([]*domain.Member, error)
	ListByKelas(ctx context.Context, kelas string) ([]*domain.Member, error)
	Update(ctx context.Context, member *domain.Member) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// ProgressRepository defines the interface for reading-progress operations
type ProgressRepository interface {
	// Upsert inserts or updates the progress row for a loan
	Upsert(ctx context.Context, progress *domain.ReadingProgress) error

	GetByLoanID(ctx context.Context, loanID uuid.UUID) (*domain.ReadingProgress, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.ReadingProgress, error)
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error

	// ExistsSince reports whether the user already received a notification
	// with the given message since the cutoff. The reminder job uses it to
	// send at most one reminder per loan per day.
	ExistsSince(ctx context.Context, userID uuid.UUID, message string, since time.Time) (bool, error)
}
