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

// MemberService manages membership records. Mutations are admin-only; a
// homeroom teacher can read the members of their own class.
type MemberService struct {
	memberRepo repository.MemberRepository
	loanRepo   repository.LoanRepository
	now        func() time.Time
}

func NewMemberService(memberRepo repository.MemberRepository, loanRepo repository.LoanRepository) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		loanRepo:   loanRepo,
		now:        time.Now,
	}
}

func (s *MemberService) CreateMember(ctx context.Context, principal domain.Principal, req *domain.CreateMemberRequest) (*domain.Member, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can manage members")
	}

	now := s.now()
	member := &domain.Member{
		ID:        uuid.New(),
		Name:      req.Name,
		Role:      req.Role,
		Kelas:     req.Kelas,
		NIS:       req.NIS,
		Contact:   req.Contact,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return member, nil
}

func (s *MemberService) GetMember(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Member, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	// Members can only look themselves up.
	if principal.IsMember() && principal.UserID != id {
		return nil, apperrors.NewForbidden("members may only view their own record")
	}

	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrMemberNotFound) {
			return nil, apperrors.WrapMemberNotFound(id.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return member, nil
}

func (s *MemberService) ListMembers(ctx context.Context, principal domain.Principal, search string) ([]*domain.Member, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	switch principal.Role {
	case domain.RoleAdmin:
		members, err := s.memberRepo.List(ctx, search)
		if err != nil {
			return nil, apperrors.WrapDatabaseError(err)
		}
		return members, nil
	case domain.RoleHomeroom:
		members, err := s.memberRepo.ListByKelas(ctx, principal.Kelas)
		if err != nil {
			return nil, apperrors.WrapDatabaseError(err)
		}
		return members, nil
	default:
		return nil, apperrors.NewForbidden("members may not list other members")
	}
}

func (s *MemberService) UpdateMember(ctx context.Context, principal domain.Principal, id uuid.UUID, req *domain.UpdateMemberRequest) (*domain.Member, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can manage members")
	}

	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrMemberNotFound) {
			return nil, apperrors.WrapMemberNotFound(id.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	member.Name = req.Name
	member.Kelas = req.Kelas
	member.Contact = req.Contact
	member.UpdatedAt = s.now()

	if err := s.memberRepo.Update(ctx, member); err != nil {
		if errors.Is(err, apperrors.ErrMemberNotFound) {
			return nil, apperrors.WrapMemberNotFound(id.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return member, nil
}

// DeleteMember removes a member unless they still hold an active loan.
func (s *MemberService) DeleteMember(ctx context.Context, principal domain.Principal, id uuid.UUID) error {
	if !principal.Resolved() {
		return apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return apperrors.NewForbidden("only administrators can manage members")
	}

	active, err := s.loanRepo.CountActiveByMember(ctx, id)
	if err != nil {
		return apperrors.WrapDatabaseError(err)
	}
	if active > 0 {
		return apperrors.WrapHasActiveLoans("member")
	}

	if err := s.memberRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrMemberNotFound) {
			return apperrors.WrapMemberNotFound(id.String())
		}
		return apperrors.WrapDatabaseError(err)
	}

	return nil
}
