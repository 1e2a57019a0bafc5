package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a business error so transports can map it to a stable
// user-facing category (fix your input vs. not allowed vs. not right now).
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindPolicy
	KindNotFound
)

// Domain errors
var (
	ErrNotAuthenticated    = errors.New("authentication required")
	ErrForbidden           = errors.New("forbidden")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrBookNotFound        = errors.New("book not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrShelfNotFound       = errors.New("bookshelf not found")
	ErrProgressNotFound    = errors.New("reading progress not found")
	ErrBookUnavailable     = errors.New("book unavailable")
	ErrActiveLoanExists    = errors.New("member already has an active loan")
	ErrLoanAlreadyReturned = errors.New("loan already returned")
	ErrLoanNotActive       = errors.New("loan is not active")
	ErrHasActiveLoans      = errors.New("active loans reference this record")
)

// Error codes
const (
	ErrCodeNotAuthenticated    = "NOT_AUTHENTICATED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeMissingFields       = "MISSING_FIELDS"
	ErrCodeInvalidDueDate      = "INVALID_DUE_DATE"
	ErrCodeInvalidStatusFilter = "INVALID_STATUS_FILTER"
	ErrCodePenaltyBookRequired = "PENALTY_BOOK_REQUIRED"
	ErrCodePenaltyNotAllowed   = "PENALTY_NOT_ALLOWED"
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodeBookNotFound        = "BOOK_NOT_FOUND"
	ErrCodeMemberNotFound      = "MEMBER_NOT_FOUND"
	ErrCodeShelfNotFound       = "SHELF_NOT_FOUND"
	ErrCodeProgressNotFound    = "PROGRESS_NOT_FOUND"
	ErrCodeBookUnavailable     = "BOOK_UNAVAILABLE"
	ErrCodeActiveLoanExists    = "ACTIVE_LOAN_EXISTS"
	ErrCodeLoanAlreadyReturned = "LOAN_ALREADY_RETURNED"
	ErrCodeLoanNotActive       = "LOAN_NOT_ACTIVE"
	ErrCodeHasActiveLoans      = "HAS_ACTIVE_LOANS"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeCacheError          = "CACHE_ERROR"
)

// BusinessError represents a business logic error
type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(kind Kind, code, message string, err error) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the Kind of err, or KindInternal for unrecognized errors
// (storage failures, conflicts); those are the only ones worth retrying.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Wrap common errors with business context

func NewAuthenticationRequired() *BusinessError {
	return NewBusinessError(KindAuthentication, ErrCodeNotAuthenticated, "authentication required", ErrNotAuthenticated)
}

func NewForbidden(message string) *BusinessError {
	return NewBusinessError(KindAuthorization, ErrCodeForbidden, message, ErrForbidden)
}

func NewValidation(code, message string) *BusinessError {
	return NewBusinessError(KindValidation, code, message, nil)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeLoanNotFound,
		fmt.Sprintf("loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapBookNotFound(bookID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeBookNotFound,
		fmt.Sprintf("book with ID %s not found", bookID),
		ErrBookNotFound,
	)
}

func WrapMemberNotFound(memberID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeMemberNotFound,
		fmt.Sprintf("member with ID %s not found", memberID),
		ErrMemberNotFound,
	)
}

func WrapShelfNotFound(shelfID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeShelfNotFound,
		fmt.Sprintf("bookshelf with ID %s not found", shelfID),
		ErrShelfNotFound,
	)
}

func WrapBookUnavailable(bookID string) *BusinessError {
	return NewBusinessError(
		KindPolicy,
		ErrCodeBookUnavailable,
		fmt.Sprintf("book with ID %s is out of stock", bookID),
		ErrBookUnavailable,
	)
}

func WrapActiveLoanExists(memberID string) *BusinessError {
	return NewBusinessError(
		KindPolicy,
		ErrCodeActiveLoanExists,
		fmt.Sprintf("member %s already has an active loan", memberID),
		ErrActiveLoanExists,
	)
}

func WrapLoanAlreadyReturned(loanID string) *BusinessError {
	return NewBusinessError(
		KindPolicy,
		ErrCodeLoanAlreadyReturned,
		fmt.Sprintf("loan with ID %s is already returned", loanID),
		ErrLoanAlreadyReturned,
	)
}

func WrapLoanNotActive(loanID string) *BusinessError {
	return NewBusinessError(
		KindPolicy,
		ErrCodeLoanNotActive,
		fmt.Sprintf("loan with ID %s is not active", loanID),
		ErrLoanNotActive,
	)
}

func WrapHasActiveLoans(what string) *BusinessError {
	return NewBusinessError(
		KindPolicy,
		ErrCodeHasActiveLoans,
		fmt.Sprintf("%s cannot be deleted while active loans reference it", what),
		ErrHasActiveLoans,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		KindInternal,
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		KindInternal,
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
