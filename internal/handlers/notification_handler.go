package handlers

import (
	"net/http"
	"strconv"

	"focusquest/internal/models"
	"focusquest/internal/service"
	"focusquest/internal/validation"

	"github.com/gorilla/mux"
)

// NotificationHandler serves the parent inbox and child activity events
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type childEventRequest struct {
	Type   models.NotificationType `json:"type" validate:"required,oneof=break_taken child_login child_logout"`
	Detail string                  `json:"detail" validate:"max=255"`
}

// List returns the parent's notifications; ?unread=true filters
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	list, err := h.notificationService.List(r.Context(), actorOf(r), queryBool(r, "unread"), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	respondJSON(w, http.StatusOK, list)
}

// UnreadCount returns the number of unread notifications
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.UnreadCount(r.Context(), actorOf(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkRead marks one notification read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondServiceError(w, validation.ValidationError{Field: "id", Message: "invalid notification id"})
		return
	}
	if err := h.notificationService.MarkRead(r.Context(), actorOf(r), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// RecordChildEvent notifies the parent of a login, logout or break
func (h *NotificationHandler) RecordChildEvent(w http.ResponseWriter, r *http.Request) {
	var req childEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.notificationService.RecordChildEvent(r.Context(), actorOf(r), mux.Vars(r)["childId"], req.Type, req.Detail); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Event recorded"})
}
