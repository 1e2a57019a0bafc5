package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	LoanStatusActive   = "ACTIVE"
	LoanStatusReturned = "RETURNED"

	// LoanStatusOverdue is a derived display status, never stored. An ACTIVE
	// loan whose due date has passed is relabeled OVERDUE on every read path.
	LoanStatusOverdue = "OVERDUE"

	// PenaltyTypeAnalysisTask is the only penalty kind: an analytical reading
	// assignment substituting for a monetary fine.
	PenaltyTypeAnalysisTask = "ANALYSIS_TASK"
)

// Status filter values accepted by ListLoans.
const (
	StatusFilterAll      = "ALL"
	StatusFilterActive   = LoanStatusActive
	StatusFilterReturned = LoanStatusReturned
	StatusFilterOverdue  = LoanStatusOverdue
)

// Loan represents one checkout of a single catalog item by one member.
type Loan struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	BookID        uuid.UUID  `json:"book_id" db:"book_id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	BorrowDate    time.Time  `json:"borrow_date" db:"borrow_date"`
	DueDate       time.Time  `json:"due_date" db:"due_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty" db:"return_date"`
	Status        string     `json:"status" db:"status"`
	PenaltyType   *string    `json:"penalty_type,omitempty" db:"penalty_type"`
	PenaltyBookID *uuid.UUID `json:"penalty_book_id,omitempty" db:"penalty_book_id"`
	PenaltyNote   *string    `json:"penalty_note,omitempty" db:"penalty_note"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// DeriveStatus computes the display status for a loan. This is the single
// place the OVERDUE label comes from; listings, monitoring and reports must
// all go through it so their overdue counts cannot diverge.
func DeriveStatus(status string, dueDate, now time.Time) string {
	if status == LoanStatusActive && now.After(dueDate) {
		return LoanStatusOverdue
	}
	return status
}

// PenaltyAssignment is the analysis-task penalty an admin attaches when
// returning an overdue loan.
type PenaltyAssignment struct {
	BookID uuid.UUID
	Note   *string
}

// LoanView is a loan joined with its book and member for display.
// DisplayStatus carries the derived ACTIVE/RETURNED/OVERDUE label and is
// never written back.
type LoanView struct {
	Loan
	BookTitle     string `json:"book_title" db:"book_title"`
	BookAuthor    string `json:"book_author" db:"book_author"`
	MemberName    string `json:"member_name" db:"member_name"`
	MemberKelas   string `json:"member_kelas" db:"member_kelas"`
	DisplayStatus string `json:"display_status" db:"-"`
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	BookID     string `json:"book_id" validate:"required,uuid"`
	BorrowDate string `json:"borrow_date" validate:"required"`

	// DueDate is optional; when omitted the engine applies the configured
	// default loan period.
	DueDate string `json:"due_date"`
}

// CreateLoanInput is the parsed, transport-independent form the engine takes.
type CreateLoanInput struct {
	BookID     uuid.UUID
	BorrowDate time.Time
	DueDate    time.Time
}

type ReturnLoanRequest struct {
	PenaltyBookID *string `json:"penalty_book_id" validate:"omitempty,uuid"`
	PenaltyNote   *string `json:"penalty_note"`
}

// ReturnLoanInput is the parsed form of a return request.
type ReturnLoanInput struct {
	LoanID        uuid.UUID
	PenaltyBookID *uuid.UUID
	PenaltyNote   *string
}

// ListLoansFilter narrows a loan listing. Status "" is treated as ALL.
type ListLoansFilter struct {
	Search string
	Status string
}
