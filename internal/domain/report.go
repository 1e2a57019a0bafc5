package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LibrarySummary is the admin dashboard aggregate.
type LibrarySummary struct {
	TotalBooks    int       `json:"total_books"`
	TotalMembers  int       `json:"total_members"`
	ActiveLoans   int       `json:"active_loans"`
	OverdueLoans  int       `json:"overdue_loans"`
	ReturnedLoans int       `json:"returned_loans"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// ClassMemberSummary is one row of a homeroom teacher's class view.
type ClassMemberSummary struct {
	Member       Member     `json:"member"`
	ActiveLoans  int        `json:"active_loans"`
	OverdueLoans int        `json:"overdue_loans"`
	BooksRead    int        `json:"books_read"`
	LastBorrowAt *time.Time `json:"last_borrow_at,omitempty"`
}

type ClassSummary struct {
	Kelas   string               `json:"kelas"`
	Members []ClassMemberSummary `json:"members"`
}

// ReportRow is one line of the administrative loan report. Fine is a legacy
// column: penalties are task-based, so it always reads zero.
type ReportRow struct {
	LoanID        string          `json:"loan_id"`
	BookTitle     string          `json:"book_title"`
	BookAuthor    string          `json:"book_author"`
	MemberName    string          `json:"member_name"`
	MemberKelas   string          `json:"member_kelas"`
	BorrowDate    time.Time       `json:"borrow_date"`
	DueDate       time.Time       `json:"due_date"`
	ReturnDate    *time.Time      `json:"return_date,omitempty"`
	DisplayStatus string          `json:"display_status"`
	PenaltyBook   string          `json:"penalty_book,omitempty"`
	Fine          decimal.Decimal `json:"fine"`
}

// ReportFilter narrows the loan report by borrow date.
type ReportFilter struct {
	From *time.Time
	To   *time.Time
}
