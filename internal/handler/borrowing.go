package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/middleware"
	"github.com/perpusku/library-engine/internal/service"
	"github.com/perpusku/library-engine/pkg/response"
	"github.com/perpusku/library-engine/pkg/utils"
)

type BorrowingHandler struct {
	service   *service.BorrowingService
	validator *validator.Validate
}

func NewBorrowingHandler(service *service.BorrowingService) *BorrowingHandler {
	return &BorrowingHandler{
		service:   service,
		validator: validator.New(),
	}
}

// principalOrZero hands the service whatever principal the middleware
// resolved; a zero value makes the service fail with an authentication
// error before anything else runs.
func principalOrZero(r *http.Request) domain.Principal {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p
}

// CreateLoan handles POST /loans
func (h *BorrowingHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		response.BadRequest(w, "book_id must be a valid id", err)
		return
	}

	borrowDate, err := utils.ParseDate(req.BorrowDate)
	if err != nil {
		response.BadRequest(w, "borrow_date must be formatted as "+utils.DateLayout, err)
		return
	}

	var dueDate time.Time
	if req.DueDate != "" {
		dueDate, err = utils.ParseDate(req.DueDate)
		if err != nil {
			response.BadRequest(w, "due_date must be formatted as "+utils.DateLayout, err)
			return
		}
	}

	loan, err := h.service.CreateLoan(r.Context(), principalOrZero(r), domain.CreateLoanInput{
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, loan)
}

// ListLoans handles GET /loans
func (h *BorrowingHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListLoansFilter{
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	}

	loans, err := h.service.ListLoans(r.Context(), principalOrZero(r), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, loans)
}

// ReturnLoan handles POST /loans/{loanId}/return
func (h *BorrowingHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "loanId must be a valid id", err)
		return
	}

	// The body is optional: a plain member return carries no payload.
	var req domain.ReturnLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	input := domain.ReturnLoanInput{
		LoanID:      loanID,
		PenaltyNote: req.PenaltyNote,
	}
	if req.PenaltyBookID != nil {
		penaltyBookID, err := uuid.Parse(*req.PenaltyBookID)
		if err != nil {
			response.BadRequest(w, "penalty_book_id must be a valid id", err)
			return
		}
		input.PenaltyBookID = &penaltyBookID
	}

	if err := h.service.ReturnLoan(r.Context(), principalOrZero(r), input); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "loan returned"})
}
