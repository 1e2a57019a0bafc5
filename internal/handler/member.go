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

type MemberHandler struct {
	service   *service.MemberService
	validator *validator.Validate
}

func NewMemberHandler(service *service.MemberService) *MemberHandler {
	return &MemberHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateMember handles POST /members
func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	member, err := h.service.CreateMember(r.Context(), principalOrZero(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, member)
}

// GetMember handles GET /members/{memberId}
func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["memberId"])
	if err != nil {
		response.BadRequest(w, "memberId must be a valid id", err)
		return
	}

	member, err := h.service.GetMember(r.Context(), principalOrZero(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, member)
}

// ListMembers handles GET /members
func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), principalOrZero(r), r.URL.Query().Get("search"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, members)
}

// UpdateMember handles PUT /members/{memberId}
func (h *MemberHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["memberId"])
	if err != nil {
		response.BadRequest(w, "memberId must be a valid id", err)
		return
	}

	var req domain.UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	member, err := h.service.UpdateMember(r.Context(), principalOrZero(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, member)
}

// DeleteMember handles DELETE /members/{memberId}
func (h *MemberHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["memberId"])
	if err != nil {
		response.BadRequest(w, "memberId must be a valid id", err)
		return
	}

	if err := h.service.DeleteMember(r.Context(), principalOrZero(r), id); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "member deleted"})
}
