package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/perpusku/library-engine/internal/config"
	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/repository"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

// rolePolicy captures what a role may do around returns and borrow caps.
// Keeping it in one table keeps the validation order of ReturnLoan auditable
// instead of scattering role conditionals through the operation.
type rolePolicy struct {
	crossMemberReturn bool
	assignPenalty     bool
	singleLoanCap     bool
}

var rolePolicies = map[string]rolePolicy{
	domain.RoleAdmin:    {crossMemberReturn: true, assignPenalty: true, singleLoanCap: false},
	domain.RoleHomeroom: {crossMemberReturn: true, assignPenalty: false, singleLoanCap: false},
	domain.RoleMember:   {crossMemberReturn: false, assignPenalty: false, singleLoanCap: true},
}

// policyFor returns the policy for a role. Unknown elevated roles behave like
// HOMEROOM: they may return on behalf of members but cannot assign penalties.
func policyFor(role string) rolePolicy {
	if p, ok := rolePolicies[role]; ok {
		return p
	}
	return rolePolicies[domain.RoleHomeroom]
}

// BorrowingService owns the loan lifecycle: creation with stock decrement,
// listing with derived overdue status, and return with penalty handling.
type BorrowingService struct {
	loanRepo  repository.LoanRepository
	bookRepo  repository.BookRepository
	notifRepo repository.NotificationRepository
	config    *config.Config
	now       func() time.Time
}

func NewBorrowingService(
	loanRepo repository.LoanRepository,
	bookRepo repository.BookRepository,
	notifRepo repository.NotificationRepository,
	config *config.Config,
) *BorrowingService {
	return &BorrowingService{
		loanRepo:  loanRepo,
		bookRepo:  bookRepo,
		notifRepo: notifRepo,
		config:    config,
		now:       time.Now,
	}
}

// CreateLoan creates a loan and decrements the book's stock atomically.
func (s *BorrowingService) CreateLoan(ctx context.Context, principal domain.Principal, input domain.CreateLoanInput) (*domain.Loan, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	if input.DueDate.IsZero() && !input.BorrowDate.IsZero() && s.config.Business.DefaultLoanDays > 0 {
		input.DueDate = input.BorrowDate.AddDate(0, 0, s.config.Business.DefaultLoanDays)
	}

	if input.BookID == uuid.Nil || input.BorrowDate.IsZero() || input.DueDate.IsZero() {
		return nil, apperrors.NewValidation(apperrors.ErrCodeMissingFields, "book, borrow date and due date are required")
	}

	if !input.DueDate.After(input.BorrowDate) {
		return nil, apperrors.NewValidation(apperrors.ErrCodeInvalidDueDate, "due date must be after borrow date")
	}

	now := s.now()
	loan := &domain.Loan{
		ID:         uuid.New(),
		BookID:     input.BookID,
		UserID:     principal.UserID,
		BorrowDate: input.BorrowDate,
		DueDate:    input.DueDate,
		Status:     domain.LoanStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	pol := policyFor(principal.Role)
	err := s.loanRepo.CreateWithStockDecrement(ctx, loan, pol.singleLoanCap)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrActiveLoanExists):
		return nil, apperrors.WrapActiveLoanExists(principal.UserID.String())
	case errors.Is(err, apperrors.ErrBookNotFound):
		return nil, apperrors.WrapBookNotFound(input.BookID.String())
	case errors.Is(err, apperrors.ErrBookUnavailable):
		return nil, apperrors.WrapBookUnavailable(input.BookID.String())
	case errors.Is(err, apperrors.ErrMemberNotFound):
		return nil, apperrors.WrapMemberNotFound(principal.UserID.String())
	default:
		return nil, apperrors.WrapDatabaseError(err)
	}

	s.notify(ctx, loan.UserID, fmt.Sprintf("Peminjaman berhasil. Batas waktu: %s", loan.DueDate.Format("02 Jan 2006")))

	return loan, nil
}

// ListLoans lists loans visible to the principal, newest borrow first, each
// annotated with its derived display status. Members only ever see their own.
func (s *BorrowingService) ListLoans(ctx context.Context, principal domain.Principal, filter domain.ListLoansFilter) ([]*domain.LoanView, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	status := strings.ToUpper(strings.TrimSpace(filter.Status))
	switch status {
	case "", domain.StatusFilterAll, domain.StatusFilterActive, domain.StatusFilterReturned, domain.StatusFilterOverdue:
	default:
		return nil, apperrors.NewValidation(apperrors.ErrCodeInvalidStatusFilter, "status must be one of ALL, ACTIVE, RETURNED, OVERDUE")
	}

	q := repository.LoanQuery{
		Search:       filter.Search,
		SearchMember: !principal.IsMember(),
	}
	if principal.IsMember() {
		userID := principal.UserID
		q.UserID = &userID
	}

	switch status {
	case domain.StatusFilterActive, domain.StatusFilterReturned:
		q.Status = status
	case domain.StatusFilterOverdue:
		// Overdue is a projection of ACTIVE; fetch active and filter below.
		q.Status = domain.LoanStatusActive
	}

	loans, err := s.loanRepo.List(ctx, q)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	now := s.now()
	result := make([]*domain.LoanView, 0, len(loans))
	for _, loan := range loans {
		loan.DisplayStatus = domain.DeriveStatus(loan.Status, loan.DueDate, now)
		if status == domain.StatusFilterOverdue && loan.DisplayStatus != domain.LoanStatusOverdue {
			continue
		}
		result = append(result, loan)
	}

	return result, nil
}

// ReturnLoan flips an active loan to RETURNED and increments the book's stock.
// An admin returning an overdue loan must assign an analysis-task penalty
// book; everyone else returns without penalty fields.
func (s *BorrowingService) ReturnLoan(ctx context.Context, principal domain.Principal, input domain.ReturnLoanInput) error {
	if !principal.Resolved() {
		return apperrors.NewAuthenticationRequired()
	}

	loan, err := s.loanRepo.GetByID(ctx, input.LoanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrLoanNotFound) {
			return apperrors.WrapLoanNotFound(input.LoanID.String())
		}
		return apperrors.WrapDatabaseError(err)
	}

	pol := policyFor(principal.Role)

	if !pol.crossMemberReturn && loan.UserID != principal.UserID {
		return apperrors.NewForbidden("members may only return their own loans")
	}

	if loan.Status == domain.LoanStatusReturned {
		return apperrors.WrapLoanAlreadyReturned(loan.ID.String())
	}

	if !pol.assignPenalty && (input.PenaltyBookID != nil || input.PenaltyNote != nil) {
		return apperrors.NewForbidden("members may not set penalty fields")
	}

	// Live recheck against the current clock, not the listing snapshot.
	now := s.now()
	isOverdue := now.After(loan.DueDate)

	var penalty *domain.PenaltyAssignment
	if isOverdue && pol.assignPenalty {
		if input.PenaltyBookID == nil {
			return apperrors.NewValidation(apperrors.ErrCodePenaltyBookRequired, "penalty book is required for an overdue return")
		}
		if _, err := s.bookRepo.GetByID(ctx, *input.PenaltyBookID); err != nil {
			if errors.Is(err, apperrors.ErrBookNotFound) {
				return apperrors.WrapBookNotFound(input.PenaltyBookID.String())
			}
			return apperrors.WrapDatabaseError(err)
		}
		penalty = &domain.PenaltyAssignment{
			BookID: *input.PenaltyBookID,
			Note:   input.PenaltyNote,
		}
	}
	// On-time returns persist no penalty fields, whatever was supplied.

	err = s.loanRepo.CompleteReturn(ctx, loan.ID, now, penalty)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrLoanNotFound):
		return apperrors.WrapLoanNotFound(loan.ID.String())
	case errors.Is(err, apperrors.ErrLoanAlreadyReturned):
		return apperrors.WrapLoanAlreadyReturned(loan.ID.String())
	default:
		return apperrors.WrapDatabaseError(err)
	}

	msg := "Pengembalian berhasil."
	if penalty != nil {
		msg = "Pengembalian terlambat. Tugas analisis buku diberikan sebagai pengganti denda."
	}
	s.notify(ctx, loan.UserID, msg)

	return nil
}

// ActiveLoanCountByBook reports how many ACTIVE loans reference a book.
// The catalog uses it to block deleting a book that is still out.
func (s *BorrowingService) ActiveLoanCountByBook(ctx context.Context, bookID uuid.UUID) (int, error) {
	count, err := s.loanRepo.CountActiveByBook(ctx, bookID)
	if err != nil {
		return 0, apperrors.WrapDatabaseError(err)
	}
	return count, nil
}

// ActiveLoanCountByMember reports how many ACTIVE loans a member holds.
func (s *BorrowingService) ActiveLoanCountByMember(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.loanRepo.CountActiveByMember(ctx, userID)
	if err != nil {
		return 0, apperrors.WrapDatabaseError(err)
	}
	return count, nil
}

// notify writes a best-effort notification; a failure never fails the loan
// operation that triggered it.
func (s *BorrowingService) notify(ctx context.Context, userID uuid.UUID, message string) {
	if s.notifRepo == nil {
		return
	}
	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		log.Printf("failed to create notification for %s: %v", userID, err)
	}
}
