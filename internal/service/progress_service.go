package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/repository"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

// ProgressService tracks how far members read into their borrowed books.
type ProgressService struct {
	progressRepo repository.ProgressRepository
	loanRepo     repository.LoanRepository
	now          func() time.Time
}

func NewProgressService(progressRepo repository.ProgressRepository, loanRepo repository.LoanRepository) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		loanRepo:     loanRepo,
		now:          time.Now,
	}
}

// RecordProgress upserts the progress entry for a loan. Members may only
// record against their own active loan; admins can record for anyone.
func (s *ProgressService) RecordProgress(ctx context.Context, principal domain.Principal, loanID uuid.UUID, req *domain.RecordProgressRequest) (*domain.ReadingProgress, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrLoanNotFound) {
			return nil, apperrors.WrapLoanNotFound(loanID.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	if !principal.IsAdmin() && loan.UserID != principal.UserID {
		return nil, apperrors.NewForbidden("progress can only be recorded on your own loan")
	}

	if loan.Status != domain.LoanStatusActive {
		return nil, apperrors.WrapLoanNotActive(loanID.String())
	}

	progress := &domain.ReadingProgress{
		ID:        uuid.New(),
		LoanID:    loan.ID,
		UserID:    loan.UserID,
		PagesRead: req.PagesRead,
		Note:      req.Note,
		UpdatedAt: s.now(),
	}

	if err := s.progressRepo.Upsert(ctx, progress); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return progress, nil
}

// GetProgress returns the progress entry of a loan; members see only their own.
func (s *ProgressService) GetProgress(ctx context.Context, principal domain.Principal, loanID uuid.UUID) (*domain.ReadingProgress, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrLoanNotFound) {
			return nil, apperrors.WrapLoanNotFound(loanID.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	if principal.IsMember() && loan.UserID != principal.UserID {
		return nil, apperrors.NewForbidden("members may only view their own progress")
	}

	progress, err := s.progressRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProgressNotFound) {
			return nil, apperrors.NewBusinessError(apperrors.KindNotFound, apperrors.ErrCodeProgressNotFound, "no progress recorded for this loan", apperrors.ErrProgressNotFound)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return progress, nil
}

// MemberHistory lists every progress entry a member has recorded.
func (s *ProgressService) MemberHistory(ctx context.Context, principal domain.Principal, userID uuid.UUID) ([]*domain.ReadingProgress, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	if principal.IsMember() && principal.UserID != userID {
		return nil, apperrors.NewForbidden("members may only view their own progress")
	}

	entries, err := s.progressRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return entries, nil
}
