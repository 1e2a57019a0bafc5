package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/service"
	"github.com/perpusku/library-engine/pkg/response"
)

type ProgressHandler struct {
	service   *service.ProgressService
	validator *validator.Validate
}

func NewProgressHandler(service *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		service:   service,
		validator: validator.New(),
	}
}

// RecordProgress handles PUT /loans/{loanId}/progress
func (h *ProgressHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "loanId must be a valid id", err)
		return
	}

	var req domain.RecordProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	progress, err := h.service.RecordProgress(r.Context(), principalOrZero(r), loanID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, progress)
}

// GetProgress handles GET /loans/{loanId}/progress
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "loanId must be a valid id", err)
		return
	}

	progress, err := h.service.GetProgress(r.Context(), principalOrZero(r), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, progress)
}

// MemberHistory handles GET /members/{memberId}/progress
func (h *ProgressHandler) MemberHistory(w http.ResponseWriter, r *http.Request) {
	memberID, err := uuid.Parse(mux.Vars(r)["memberId"])
	if err != nil {
		response.BadRequest(w, "memberId must be a valid id", err)
		return
	}

	entries, err := h.service.MemberHistory(r.Context(), principalOrZero(r), memberID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, entries)
}
