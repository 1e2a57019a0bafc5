package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/perpusku/library-engine/internal/config"
	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/repository"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
	"github.com/perpusku/library-engine/tests/mocks"
)

func newMonitoringService(loanRepo *mocks.MockLoanRepository, bookRepo *mocks.MockBookRepository, memberRepo *mocks.MockMemberRepository) *MonitoringService {
	svc := NewMonitoringService(loanRepo, bookRepo, memberRepo, nil, &config.Config{})
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestLibrarySummary(t *testing.T) {
	t.Run("summary splits active and overdue through one derivation", func(t *testing.T) {
		member := memberPrincipal()

		loanRepo := &mocks.MockLoanRepository{}
		bookRepo := &mocks.MockBookRepository{}
		memberRepo := &mocks.MockMemberRepository{}

		bookRepo.On("Count", mock.Anything).Return(120, nil)
		memberRepo.On("Count", mock.Anything).Return(40, nil)
		loanRepo.On("CountByStatus", mock.Anything, domain.LoanStatusReturned).Return(15, nil)
		loanRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.LoanQuery) bool {
			return q.Status == domain.LoanStatusActive
		})).Return([]*domain.LoanView{
			loanView(member.UserID, domain.LoanStatusActive, testNow.AddDate(0, 0, -1)),
			loanView(member.UserID, domain.LoanStatusActive, testNow.AddDate(0, 0, -2)),
			loanView(member.UserID, domain.LoanStatusActive, testNow.AddDate(0, 0, 3)),
		}, nil)

		svc := newMonitoringService(loanRepo, bookRepo, memberRepo)

		summary, err := svc.LibrarySummary(context.Background(), adminPrincipal())
		require.NoError(t, err)
		assert.Equal(t, 120, summary.TotalBooks)
		assert.Equal(t, 40, summary.TotalMembers)
		assert.Equal(t, 15, summary.ReturnedLoans)
		assert.Equal(t, 1, summary.ActiveLoans)
		assert.Equal(t, 2, summary.OverdueLoans)
		assert.Equal(t, testNow, summary.GeneratedAt)
	})

	t.Run("non-admin roles are rejected", func(t *testing.T) {
		svc := newMonitoringService(&mocks.MockLoanRepository{}, &mocks.MockBookRepository{}, &mocks.MockMemberRepository{})

		for _, p := range []domain.Principal{memberPrincipal(), homeroomPrincipal()} {
			_, err := svc.LibrarySummary(context.Background(), p)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
		}
	})
}

func TestClassSummary(t *testing.T) {
	budi := &domain.Member{ID: uuid.New(), Name: "Budi", Kelas: "8A"}
	siti := &domain.Member{ID: uuid.New(), Name: "Siti", Kelas: "8A"}

	classLoans := []*domain.LoanView{
		loanView(budi.ID, domain.LoanStatusActive, testNow.AddDate(0, 0, -2)),
		loanView(budi.ID, domain.LoanStatusReturned, testNow.AddDate(0, 0, -10)),
		loanView(siti.ID, domain.LoanStatusActive, testNow.AddDate(0, 0, 4)),
	}

	setup := func() *MonitoringService {
		loanRepo := &mocks.MockLoanRepository{}
		memberRepo := &mocks.MockMemberRepository{}
		memberRepo.On("ListByKelas", mock.Anything, "8A").Return([]*domain.Member{budi, siti}, nil)
		loanRepo.On("ListByKelas", mock.Anything, "8A").Return(classLoans, nil)
		return newMonitoringService(loanRepo, &mocks.MockBookRepository{}, memberRepo)
	}

	t.Run("homeroom monitors own class", func(t *testing.T) {
		svc := setup()
		homeroom := domain.Principal{UserID: uuid.New(), Role: domain.RoleHomeroom, Kelas: "8A"}

		summary, err := svc.ClassSummary(context.Background(), homeroom, "8A")
		require.NoError(t, err)
		require.Len(t, summary.Members, 2)

		assert.Equal(t, "Budi", summary.Members[0].Member.Name)
		assert.Equal(t, 1, summary.Members[0].ActiveLoans)
		assert.Equal(t, 1, summary.Members[0].OverdueLoans)
		assert.Equal(t, 1, summary.Members[0].BooksRead)

		assert.Equal(t, "Siti", summary.Members[1].Member.Name)
		assert.Equal(t, 1, summary.Members[1].ActiveLoans)
		assert.Equal(t, 0, summary.Members[1].OverdueLoans)
	})

	t.Run("homeroom cannot monitor another class", func(t *testing.T) {
		svc := setup()
		homeroom := domain.Principal{UserID: uuid.New(), Role: domain.RoleHomeroom, Kelas: "7C"}

		_, err := svc.ClassSummary(context.Background(), homeroom, "8A")
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
	})

	t.Run("admin monitors any class", func(t *testing.T) {
		svc := setup()

		_, err := svc.ClassSummary(context.Background(), adminPrincipal(), "8A")
		require.NoError(t, err)
	})

	t.Run("member is rejected", func(t *testing.T) {
		svc := setup()

		_, err := svc.ClassSummary(context.Background(), memberPrincipal(), "8A")
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
	})
}

func TestLoanReport(t *testing.T) {
	member := memberPrincipal()

	t.Run("report rows carry derived status and zero fine", func(t *testing.T) {
		overdue := loanView(member.UserID, domain.LoanStatusActive, testNow.AddDate(0, 0, -1))
		penaltyBook := uuid.New()
		returned := loanView(member.UserID, domain.LoanStatusReturned, testNow.AddDate(0, 0, -5))
		returned.PenaltyBookID = &penaltyBook

		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("List", mock.Anything, mock.Anything).Return([]*domain.LoanView{overdue, returned}, nil)

		svc := newMonitoringService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockMemberRepository{})

		rows, err := svc.LoanReport(context.Background(), adminPrincipal(), domain.ReportFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, domain.LoanStatusOverdue, rows[0].DisplayStatus)
		assert.True(t, rows[0].Fine.IsZero())
		assert.Empty(t, rows[0].PenaltyBook)

		assert.Equal(t, domain.LoanStatusReturned, rows[1].DisplayStatus)
		assert.True(t, rows[1].Fine.IsZero())
		assert.Equal(t, penaltyBook.String(), rows[1].PenaltyBook)
	})

	t.Run("date bounds are passed through to the query", func(t *testing.T) {
		from := testNow.AddDate(0, -1, 0)
		to := testNow

		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.LoanQuery) bool {
			return q.From != nil && q.From.Equal(from) && q.To != nil && q.To.Equal(to)
		})).Return([]*domain.LoanView{}, nil)

		svc := newMonitoringService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockMemberRepository{})

		_, err := svc.LoanReport(context.Background(), adminPrincipal(), domain.ReportFilter{From: &from, To: &to})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("non-admin cannot export", func(t *testing.T) {
		svc := newMonitoringService(&mocks.MockLoanRepository{}, &mocks.MockBookRepository{}, &mocks.MockMemberRepository{})

		_, err := svc.LoanReport(context.Background(), homeroomPrincipal(), domain.ReportFilter{})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
	})
}
