package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/repository"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

// NotificationService lets members read and acknowledge their notifications,
// and runs the overdue-reminder sweep for the scheduler.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	loanRepo  repository.LoanRepository
	now       func() time.Time
}

func NewNotificationService(notifRepo repository.NotificationRepository, loanRepo repository.LoanRepository) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		loanRepo:  loanRepo,
		now:       time.Now,
	}
}

func (s *NotificationService) ListOwn(ctx context.Context, principal domain.Principal) ([]*domain.Notification, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	notifications, err := s.notifRepo.ListByUserID(ctx, principal.UserID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, principal domain.Principal, id uuid.UUID) error {
	if !principal.Resolved() {
		return apperrors.NewAuthenticationRequired()
	}

	if err := s.notifRepo.MarkRead(ctx, id, principal.UserID); err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			return apperrors.NewForbidden("notification does not belong to you")
		}
		return apperrors.WrapDatabaseError(err)
	}

	return nil
}

// SendOverdueReminders writes one reminder per overdue loan per day. The
// scheduler calls it daily; reruns on the same day are no-ops thanks to the
// since-midnight dedupe.
func (s *NotificationService) SendOverdueReminders(ctx context.Context) (int, error) {
	loans, err := s.loanRepo.List(ctx, repository.LoanQuery{Status: domain.LoanStatusActive})
	if err != nil {
		return 0, apperrors.WrapDatabaseError(err)
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	sent := 0
	for _, loan := range loans {
		if domain.DeriveStatus(loan.Status, loan.DueDate, now) != domain.LoanStatusOverdue {
			continue
		}

		msg := fmt.Sprintf("PERINGATAN: '%s' melewati batas waktu %s. Segera kembalikan.",
			loan.BookTitle, loan.DueDate.Format("02 Jan 2006"))

		exists, err := s.notifRepo.ExistsSince(ctx, loan.UserID, msg, midnight)
		if err != nil {
			log.Printf("reminder dedupe check failed for loan %s: %v", loan.ID, err)
			continue
		}
		if exists {
			continue
		}

		n := &domain.Notification{
			ID:        uuid.New(),
			UserID:    loan.UserID,
			Message:   msg,
			CreatedAt: now,
		}
		if err := s.notifRepo.Create(ctx, n); err != nil {
			log.Printf("failed to create reminder for loan %s: %v", loan.ID, err)
			continue
		}
		sent++
	}

	return sent, nil
}
