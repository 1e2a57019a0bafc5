package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/perpusku/library-engine/internal/service"
	"github.com/perpusku/library-engine/pkg/response"
)

type NotificationHandler struct {
	service *service.NotificationService
}

func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListOwn handles GET /notifications
func (h *NotificationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.service.ListOwn(r.Context(), principalOrZero(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, notifications)
}

// MarkRead handles POST /notifications/{notificationId}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["notificationId"])
	if err != nil {
		response.BadRequest(w, "notificationId must be a valid id", err)
		return
	}

	if err := h.service.MarkRead(r.Context(), principalOrZero(r), id); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "notification read"})
}
