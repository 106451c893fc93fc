package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hrm-gateway/internal/application/feed"
	"github.com/hrm-gateway/internal/domain"
)

// NotificationHandler proxies notification writes to the upstream API
// through the mutation-invalidation contract.
type NotificationHandler struct {
	svc *feed.Service
}

func NewNotificationHandler(svc *feed.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func notificationID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// MarkRead flags one general notification read upstream and invalidates
// the viewer's cached stream on success.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := notificationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.svc.MarkRead(r.Context(), v, id); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "marked read"})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.MarkAllRead(r.Context(), v); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "all marked read"})
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.CreateNotification(r.Context(), v, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := notificationID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.svc.DeleteNotification(r.Context(), v, id); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}
