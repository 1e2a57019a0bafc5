package service

import (
	"context"
	"errors"
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

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newBorrowingService(loanRepo *mocks.MockLoanRepository, bookRepo *mocks.MockBookRepository, notifRepo *mocks.MockNotificationRepository) *BorrowingService {
	svc := NewBorrowingService(loanRepo, bookRepo, notifRepo, &config.Config{})
	svc.now = func() time.Time { return testNow }
	return svc
}

func memberPrincipal() domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleMember, Kelas: "8A"}
}

func adminPrincipal() domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}
}

func homeroomPrincipal() domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleHomeroom, Kelas: "8A"}
}

func TestCreateLoan(t *testing.T) {
	borrowDate := testNow
	dueDate := testNow.AddDate(0, 0, 7)

	tests := []struct {
		name         string
		principal    func() domain.Principal
		input        domain.CreateLoanInput
		setupMocks   func(*mocks.MockLoanRepository, *mocks.MockNotificationRepository)
		expectedKind apperrors.Kind
		expectedCode string
	}{
		{
			name:      "Success - member borrows with single-loan cap enforced",
			principal: memberPrincipal,
			input:     domain.CreateLoanInput{BookID: uuid.New(), BorrowDate: borrowDate, DueDate: dueDate},
			setupMocks: func(loanRepo *mocks.MockLoanRepository, notifRepo *mocks.MockNotificationRepository) {
				loanRepo.On("CreateWithStockDecrement", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
					return loan.Status == domain.LoanStatusActive && loan.ReturnDate == nil
				}), true).Return(nil)
				notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:      "Success - admin borrows without single-loan cap",
			principal: adminPrincipal,
			input:     domain.CreateLoanInput{BookID: uuid.New(), BorrowDate: borrowDate, DueDate: dueDate},
			setupMocks: func(loanRepo *mocks.MockLoanRepository, notifRepo *mocks.MockNotificationRepository) {
				loanRepo.On("CreateWithStockDecrement", mock.Anything, mock.Anything, false).Return(nil)
				notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:         "Failure - unauthenticated",
			principal:    func() domain.Principal { return domain.Principal{} },
			input:        domain.CreateLoanInput{BookID: uuid.New(), BorrowDate: borrowDate, DueDate: dueDate},
			setupMocks:   func(*mocks.MockLoanRepository, *mocks.MockNotificationRepository) {},
			expectedKind: apperrors.KindAuthentication,
			expectedCode: apperrors.ErrCodeNotAuthenticated,
		},
		{
			name:         "Failure - missing book",
			principal:    memberPrincipal,
			input:        domain.CreateLoanInput{BorrowDate: borrowDate, DueDate: dueDate},
			setupMocks:   func(*mocks.MockLoanRepository, *mocks.MockNotificationRepository) {},
			expectedKind: apperrors.KindValidation,
			expectedCode: apperrors.ErrCodeMissingFields,
		},
		{
			name:         "Failure - due date not after borrow date",
			principal:    memberPrincipal,
			input:        domain.CreateLoanInput{BookID: uuid.New(), BorrowDate: dueDate, DueDate: borrowDate},
			setupMocks:   func(*mocks.MockLoanRepository, *mocks.MockNotificationRepository) {},
			expectedKind: apperrors.KindValidation,
			expectedCode: apperrors.ErrCodeInvalidDueDate,
		},
		{
			name:      "Failure - member already holds an active loan",
			principal: memberPrincipal,
			input:     domain.CreateLoanInput{BookID: uuid.New(), BorrowDate: borrowDate, DueDate: dueDate},
			setupMocks: func(loanRepo *mocks.MockLoanRepository, notifRepo *mocks.MockNotificationRepository) {
				loanRepo.On("CreateWithStockDecrement", mock.Anything, mock.Anything, true).Return(apperrors.ErrActiveLoanExists)
			},
			expectedKind: apperrors.KindPolicy,
			expectedCode: apperrors.ErrCodeActiveLoanExists,
		},
		{
			name:      "Failure - book out of stock",
			principal: memberPrincipal,
			input:     domain.CreateLoanInput{BookID: uuid.New(), BorrowDate: borrowDate, DueDate: dueDate},
			setupMocks: func(loanRepo *mocks.MockLoanRepository, notifRepo *mocks.MockNotificationRepository) {
				loanRepo.On("CreateWithStockDecrement", mock.Anything, mock.Anything, true).Return(apperrors.ErrBookUnavailable)
			},
			expectedKind: apperrors.KindPolicy,
			expectedCode: apperrors.ErrCodeBookUnavailable,
		},
		{
			name:      "Failure - book does not exist",
			principal: memberPrincipal,
			input:     domain.CreateLoanInput{BookID: uuid.New(), BorrowDate: borrowDate, DueDate: dueDate},
			setupMocks: func(loanRepo *mocks.MockLoanRepository, notifRepo *mocks.MockNotificationRepository) {
				loanRepo.On("CreateWithStockDecrement", mock.Anything, mock.Anything, true).Return(apperrors.ErrBookNotFound)
			},
			expectedKind: apperrors.KindNotFound,
			expectedCode: apperrors.ErrCodeBookNotFound,
		},
		{
			name:      "Failure - database error",
			principal: memberPrincipal,
			input:     domain.CreateLoanInput{BookID: uuid.New(), BorrowDate: borrowDate, DueDate: dueDate},
			setupMocks: func(loanRepo *mocks.MockLoanRepository, notifRepo *mocks.MockNotificationRepository) {
				loanRepo.On("CreateWithStockDecrement", mock.Anything, mock.Anything, true).Return(errors.New("connection refused"))
			},
			expectedKind: apperrors.KindInternal,
			expectedCode: apperrors.ErrCodeDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := &mocks.MockLoanRepository{}
			bookRepo := &mocks.MockBookRepository{}
			notifRepo := &mocks.MockNotificationRepository{}
			tt.setupMocks(loanRepo, notifRepo)

			svc := newBorrowingService(loanRepo, bookRepo, notifRepo)
			principal := tt.principal()

			loan, err := svc.CreateLoan(context.Background(), principal, tt.input)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Nil(t, loan)
				assert.True(t, apperrors.IsKind(err, tt.expectedKind))
				var be *apperrors.BusinessError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, tt.expectedCode, be.Code)
			} else {
				require.NoError(t, err)
				require.NotNil(t, loan)
				assert.Equal(t, principal.UserID, loan.UserID)
				assert.Equal(t, domain.LoanStatusActive, loan.Status)
			}

			loanRepo.AssertExpectations(t)
		})
	}
}

func TestCreateLoan_DefaultDueDate(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	notifRepo := &mocks.MockNotificationRepository{}

	loanRepo.On("CreateWithStockDecrement", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return loan.DueDate.Equal(testNow.AddDate(0, 0, 7))
	}), true).Return(nil)
	notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	cfg := &config.Config{}
	cfg.Business.DefaultLoanDays = 7
	svc := NewBorrowingService(loanRepo, &mocks.MockBookRepository{}, notifRepo, cfg)
	svc.now = func() time.Time { return testNow }

	loan, err := svc.CreateLoan(context.Background(), memberPrincipal(), domain.CreateLoanInput{
		BookID:     uuid.New(),
		BorrowDate: testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, testNow.AddDate(0, 0, 7), loan.DueDate)
	loanRepo.AssertExpectations(t)
}

func TestCreateLoan_NotificationFailureIsIgnored(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	bookRepo := &mocks.MockBookRepository{}
	notifRepo := &mocks.MockNotificationRepository{}

	loanRepo.On("CreateWithStockDecrement", mock.Anything, mock.Anything, true).Return(nil)
	notifRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("notifications table gone"))

	svc := newBorrowingService(loanRepo, bookRepo, notifRepo)

	loan, err := svc.CreateLoan(context.Background(), memberPrincipal(), domain.CreateLoanInput{
		BookID:     uuid.New(),
		BorrowDate: testNow,
		DueDate:    testNow.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	require.NotNil(t, loan)
}

func loanView(userID uuid.UUID, status string, dueDate time.Time) *domain.LoanView {
	return &domain.LoanView{
		Loan: domain.Loan{
			ID:         uuid.New(),
			BookID:     uuid.New(),
			UserID:     userID,
			BorrowDate: dueDate.AddDate(0, 0, -7),
			DueDate:    dueDate,
			Status:     status,
		},
		BookTitle:  "Laskar Pelangi",
		BookAuthor: "Andrea Hirata",
		MemberName: "Budi",
	}
}

func TestListLoans(t *testing.T) {
	member := memberPrincipal()
	admin := adminPrincipal()

	t.Run("member is scoped to own loans", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.LoanQuery) bool {
			return q.UserID != nil && *q.UserID == member.UserID && !q.SearchMember
		})).Return([]*domain.LoanView{}, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		_, err := svc.ListLoans(context.Background(), member, domain.ListLoansFilter{})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("admin sees all loans and searches member names", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.LoanQuery) bool {
			return q.UserID == nil && q.SearchMember && q.Search == "budi"
		})).Return([]*domain.LoanView{}, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		_, err := svc.ListLoans(context.Background(), admin, domain.ListLoansFilter{Search: "budi"})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("active loan past due is displayed as overdue", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("List", mock.Anything, mock.Anything).Return([]*domain.LoanView{
			loanView(member.UserID, domain.LoanStatusActive, testNow.AddDate(0, 0, -1)),
			loanView(member.UserID, domain.LoanStatusActive, testNow.AddDate(0, 0, 3)),
			loanView(member.UserID, domain.LoanStatusReturned, testNow.AddDate(0, 0, -5)),
		}, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		loans, err := svc.ListLoans(context.Background(), admin, domain.ListLoansFilter{})
		require.NoError(t, err)
		require.Len(t, loans, 3)
		assert.Equal(t, domain.LoanStatusOverdue, loans[0].DisplayStatus)
		assert.Equal(t, domain.LoanStatusActive, loans[1].DisplayStatus)
		assert.Equal(t, domain.LoanStatusReturned, loans[2].DisplayStatus)
		// the stored status never changes
		assert.Equal(t, domain.LoanStatusActive, loans[0].Status)
	})

	t.Run("overdue filter fetches active and keeps only past-due rows", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.LoanQuery) bool {
			return q.Status == domain.LoanStatusActive
		})).Return([]*domain.LoanView{
			loanView(member.UserID, domain.LoanStatusActive, testNow.AddDate(0, 0, -1)),
			loanView(member.UserID, domain.LoanStatusActive, testNow.AddDate(0, 0, 3)),
		}, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		loans, err := svc.ListLoans(context.Background(), admin, domain.ListLoansFilter{Status: "OVERDUE"})
		require.NoError(t, err)
		require.Len(t, loans, 1)
		assert.Equal(t, domain.LoanStatusOverdue, loans[0].DisplayStatus)
	})

	t.Run("a loan due exactly now is not overdue", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("List", mock.Anything, mock.Anything).Return([]*domain.LoanView{
			loanView(member.UserID, domain.LoanStatusActive, testNow),
		}, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		loans, err := svc.ListLoans(context.Background(), admin, domain.ListLoansFilter{})
		require.NoError(t, err)
		require.Len(t, loans, 1)
		assert.Equal(t, domain.LoanStatusActive, loans[0].DisplayStatus)
	})

	t.Run("status filter is case-insensitive", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.LoanQuery) bool {
			return q.Status == domain.LoanStatusReturned
		})).Return([]*domain.LoanView{}, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		_, err := svc.ListLoans(context.Background(), admin, domain.ListLoansFilter{Status: "returned"})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("unknown status filter is rejected", func(t *testing.T) {
		svc := newBorrowingService(&mocks.MockLoanRepository{}, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		_, err := svc.ListLoans(context.Background(), admin, domain.ListLoansFilter{Status: "LATE"})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := newBorrowingService(&mocks.MockLoanRepository{}, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		_, err := svc.ListLoans(context.Background(), domain.Principal{}, domain.ListLoansFilter{})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindAuthentication))
	})
}

func TestReturnLoan(t *testing.T) {
	member := memberPrincipal()
	admin := adminPrincipal()
	homeroom := homeroomPrincipal()

	activeLoan := func(userID uuid.UUID, dueDate time.Time) *domain.Loan {
		return &domain.Loan{
			ID:         uuid.New(),
			BookID:     uuid.New(),
			UserID:     userID,
			BorrowDate: dueDate.AddDate(0, 0, -7),
			DueDate:    dueDate,
			Status:     domain.LoanStatusActive,
		}
	}

	t.Run("member returns own loan on time", func(t *testing.T) {
		loan := activeLoan(member.UserID, testNow.AddDate(0, 0, 2))

		loanRepo := &mocks.MockLoanRepository{}
		notifRepo := &mocks.MockNotificationRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		loanRepo.On("CompleteReturn", mock.Anything, loan.ID, testNow, (*domain.PenaltyAssignment)(nil)).Return(nil)
		notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, notifRepo)

		err := svc.ReturnLoan(context.Background(), member, domain.ReturnLoanInput{LoanID: loan.ID})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("member cannot return another member's loan", func(t *testing.T) {
		loan := activeLoan(uuid.New(), testNow.AddDate(0, 0, 2))

		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		err := svc.ReturnLoan(context.Background(), member, domain.ReturnLoanInput{LoanID: loan.ID})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
	})

	t.Run("member late return persists no penalty", func(t *testing.T) {
		loan := activeLoan(member.UserID, testNow.AddDate(0, 0, -3))

		loanRepo := &mocks.MockLoanRepository{}
		notifRepo := &mocks.MockNotificationRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		loanRepo.On("CompleteReturn", mock.Anything, loan.ID, testNow, (*domain.PenaltyAssignment)(nil)).Return(nil)
		notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, notifRepo)

		err := svc.ReturnLoan(context.Background(), member, domain.ReturnLoanInput{LoanID: loan.ID})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("member supplying penalty fields is rejected", func(t *testing.T) {
		loan := activeLoan(member.UserID, testNow.AddDate(0, 0, -3))
		penaltyBook := uuid.New()

		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		err := svc.ReturnLoan(context.Background(), member, domain.ReturnLoanInput{LoanID: loan.ID, PenaltyBookID: &penaltyBook})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
	})

	t.Run("admin overdue return requires a penalty book", func(t *testing.T) {
		loan := activeLoan(uuid.New(), testNow.AddDate(0, 0, -3))

		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		err := svc.ReturnLoan(context.Background(), admin, domain.ReturnLoanInput{LoanID: loan.ID})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		var be *apperrors.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, apperrors.ErrCodePenaltyBookRequired, be.Code)
	})

	t.Run("admin overdue return assigns analysis-task penalty", func(t *testing.T) {
		loan := activeLoan(uuid.New(), testNow.AddDate(0, 0, -3))
		penaltyBook := uuid.New()
		note := "Bab 1-3"

		loanRepo := &mocks.MockLoanRepository{}
		bookRepo := &mocks.MockBookRepository{}
		notifRepo := &mocks.MockNotificationRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		bookRepo.On("GetByID", mock.Anything, penaltyBook).Return(&domain.Book{ID: penaltyBook}, nil)
		loanRepo.On("CompleteReturn", mock.Anything, loan.ID, testNow, mock.MatchedBy(func(p *domain.PenaltyAssignment) bool {
			return p != nil && p.BookID == penaltyBook && p.Note != nil && *p.Note == note
		})).Return(nil)
		notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newBorrowingService(loanRepo, bookRepo, notifRepo)

		err := svc.ReturnLoan(context.Background(), admin, domain.ReturnLoanInput{
			LoanID:        loan.ID,
			PenaltyBookID: &penaltyBook,
			PenaltyNote:   &note,
		})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
		bookRepo.AssertExpectations(t)
	})

	t.Run("admin penalty book must exist", func(t *testing.T) {
		loan := activeLoan(uuid.New(), testNow.AddDate(0, 0, -3))
		penaltyBook := uuid.New()

		loanRepo := &mocks.MockLoanRepository{}
		bookRepo := &mocks.MockBookRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		bookRepo.On("GetByID", mock.Anything, penaltyBook).Return(nil, apperrors.ErrBookNotFound)

		svc := newBorrowingService(loanRepo, bookRepo, &mocks.MockNotificationRepository{})

		err := svc.ReturnLoan(context.Background(), admin, domain.ReturnLoanInput{LoanID: loan.ID, PenaltyBookID: &penaltyBook})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("admin on-time return ignores supplied penalty fields", func(t *testing.T) {
		loan := activeLoan(uuid.New(), testNow.AddDate(0, 0, 2))
		penaltyBook := uuid.New()

		loanRepo := &mocks.MockLoanRepository{}
		notifRepo := &mocks.MockNotificationRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		loanRepo.On("CompleteReturn", mock.Anything, loan.ID, testNow, (*domain.PenaltyAssignment)(nil)).Return(nil)
		notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, notifRepo)

		err := svc.ReturnLoan(context.Background(), admin, domain.ReturnLoanInput{LoanID: loan.ID, PenaltyBookID: &penaltyBook})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("homeroom overdue return completes without penalty", func(t *testing.T) {
		loan := activeLoan(uuid.New(), testNow.AddDate(0, 0, -3))

		loanRepo := &mocks.MockLoanRepository{}
		notifRepo := &mocks.MockNotificationRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		loanRepo.On("CompleteReturn", mock.Anything, loan.ID, testNow, (*domain.PenaltyAssignment)(nil)).Return(nil)
		notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, notifRepo)

		err := svc.ReturnLoan(context.Background(), homeroom, domain.ReturnLoanInput{LoanID: loan.ID})
		require.NoError(t, err)
		loanRepo.AssertExpectations(t)
	})

	t.Run("already returned loan is rejected", func(t *testing.T) {
		loan := activeLoan(member.UserID, testNow.AddDate(0, 0, -3))
		loan.Status = domain.LoanStatusReturned

		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		err := svc.ReturnLoan(context.Background(), member, domain.ReturnLoanInput{LoanID: loan.ID})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindPolicy))
		var be *apperrors.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, apperrors.ErrCodeLoanAlreadyReturned, be.Code)
	})

	t.Run("concurrent double return surfaces already-returned", func(t *testing.T) {
		loan := activeLoan(member.UserID, testNow.AddDate(0, 0, 2))

		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		loanRepo.On("CompleteReturn", mock.Anything, loan.ID, testNow, (*domain.PenaltyAssignment)(nil)).Return(apperrors.ErrLoanAlreadyReturned)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		err := svc.ReturnLoan(context.Background(), member, domain.ReturnLoanInput{LoanID: loan.ID})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindPolicy))
	})

	t.Run("loan not found", func(t *testing.T) {
		loanID := uuid.New()

		loanRepo := &mocks.MockLoanRepository{}
		loanRepo.On("GetByID", mock.Anything, loanID).Return(nil, apperrors.ErrLoanNotFound)

		svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

		err := svc.ReturnLoan(context.Background(), member, domain.ReturnLoanInput{LoanID: loanID})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

func TestActiveLoanCounts(t *testing.T) {
	bookID := uuid.New()
	userID := uuid.New()

	loanRepo := &mocks.MockLoanRepository{}
	loanRepo.On("CountActiveByBook", mock.Anything, bookID).Return(2, nil)
	loanRepo.On("CountActiveByMember", mock.Anything, userID).Return(1, nil)

	svc := newBorrowingService(loanRepo, &mocks.MockBookRepository{}, &mocks.MockNotificationRepository{})

	byBook, err := svc.ActiveLoanCountByBook(context.Background(), bookID)
	require.NoError(t, err)
	assert.Equal(t, 2, byBook)

	byMember, err := svc.ActiveLoanCountByMember(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, byMember)
}
