package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/perpusku/library-engine/internal/config"
	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/repository"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

const summaryCacheKey = "monitoring:summary"

// MonitoringService is the read-only surface over borrowing + catalog +
// member data: dashboard summary, per-class monitoring and loan reports.
// It never mutates the engine's entities.
type MonitoringService struct {
	loanRepo   repository.LoanRepository
	bookRepo   repository.BookRepository
	memberRepo repository.MemberRepository
	redis      *redis.Client
	config     *config.Config
	now        func() time.Time
}

func NewMonitoringService(
	loanRepo repository.LoanRepository,
	bookRepo repository.BookRepository,
	memberRepo repository.MemberRepository,
	redisClient *redis.Client,
	config *config.Config,
) *MonitoringService {
	return &MonitoringService{
		loanRepo:   loanRepo,
		bookRepo:   bookRepo,
		memberRepo: memberRepo,
		redis:      redisClient,
		config:     config,
		now:        time.Now,
	}
}

// LibrarySummary returns the admin dashboard aggregate, cached in Redis for
// the configured TTL. Overdue counting goes through the same derivation as
// the listings, so the numbers cannot drift apart.
func (s *MonitoringService) LibrarySummary(ctx context.Context, principal domain.Principal) (*domain.LibrarySummary, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can view the library summary")
	}

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, summaryCacheKey).Result()
		if err == nil {
			var summary domain.LibrarySummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.computeSummary(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, summaryCacheKey, payload, s.config.Business.SummaryCacheTTL).Err(); err != nil {
				log.Printf("failed to cache library summary: %v", err)
			}
		}
	}

	return summary, nil
}

func (s *MonitoringService) computeSummary(ctx context.Context) (*domain.LibrarySummary, error) {
	books, err := s.bookRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	members, err := s.memberRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	returned, err := s.loanRepo.CountByStatus(ctx, domain.LoanStatusReturned)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	open, err := s.loanRepo.List(ctx, repository.LoanQuery{Status: domain.LoanStatusActive})
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	now := s.now()
	summary := &domain.LibrarySummary{
		TotalBooks:    books,
		TotalMembers:  members,
		ReturnedLoans: returned,
		GeneratedAt:   now,
	}
	for _, loan := range open {
		if domain.DeriveStatus(loan.Status, loan.DueDate, now) == domain.LoanStatusOverdue {
			summary.OverdueLoans++
		} else {
			summary.ActiveLoans++
		}
	}

	return summary, nil
}

// ClassSummary aggregates loan activity per member of one class. A homeroom
// teacher sees their own class only; an admin can ask for any class.
func (s *MonitoringService) ClassSummary(ctx context.Context, principal domain.Principal, kelas string) (*domain.ClassSummary, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	switch principal.Role {
	case domain.RoleAdmin:
	case domain.RoleHomeroom:
		if principal.Kelas != kelas {
			return nil, apperrors.NewForbidden("homeroom teachers may only monitor their own class")
		}
	default:
		return nil, apperrors.NewForbidden("class monitoring requires an administrative role")
	}

	members, err := s.memberRepo.ListByKelas(ctx, kelas)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	loans, err := s.loanRepo.ListByKelas(ctx, kelas)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	now := s.now()
	perMember := make(map[string]*domain.ClassMemberSummary, len(members))
	summary := &domain.ClassSummary{
		Kelas:   kelas,
		Members: make([]domain.ClassMemberSummary, 0, len(members)),
	}

	for _, m := range members {
		summary.Members = append(summary.Members, domain.ClassMemberSummary{Member: *m})
		perMember[m.ID.String()] = &summary.Members[len(summary.Members)-1]
	}

	for _, loan := range loans {
		row, ok := perMember[loan.UserID.String()]
		if !ok {
			continue
		}
		switch domain.DeriveStatus(loan.Status, loan.DueDate, now) {
		case domain.LoanStatusOverdue:
			row.OverdueLoans++
			row.ActiveLoans++
		case domain.LoanStatusActive:
			row.ActiveLoans++
		case domain.LoanStatusReturned:
			row.BooksRead++
		}
		if row.LastBorrowAt == nil || loan.BorrowDate.After(*row.LastBorrowAt) {
			t := loan.BorrowDate
			row.LastBorrowAt = &t
		}
	}

	return summary, nil
}

// LoanReport builds the administrative loan report, optionally bounded by
// borrow date. The legacy fine column always reports zero: penalties are
// analysis tasks, not money.
func (s *MonitoringService) LoanReport(ctx context.Context, principal domain.Principal, filter domain.ReportFilter) ([]*domain.ReportRow, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can export reports")
	}

	loans, err := s.loanRepo.List(ctx, repository.LoanQuery{From: filter.From, To: filter.To})
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	now := s.now()
	rows := make([]*domain.ReportRow, 0, len(loans))
	for _, loan := range loans {
		row := &domain.ReportRow{
			LoanID:        loan.ID.String(),
			BookTitle:     loan.BookTitle,
			BookAuthor:    loan.BookAuthor,
			MemberName:    loan.MemberName,
			MemberKelas:   loan.MemberKelas,
			BorrowDate:    loan.BorrowDate,
			DueDate:       loan.DueDate,
			ReturnDate:    loan.ReturnDate,
			DisplayStatus: domain.DeriveStatus(loan.Status, loan.DueDate, now),
			Fine:          decimal.Zero,
		}
		if loan.PenaltyBookID != nil {
			row.PenaltyBook = loan.PenaltyBookID.String()
		}
		rows = append(rows, row)
	}

	return rows, nil
}
