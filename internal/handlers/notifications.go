package handlers

import (
	"net/http"
)

type dismissRequest struct {
	ID int `json:"id"`
}

func (h *Handlers) UnreadNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notifications.Unread(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, notifications)
}

func (h *Handlers) DismissNotification(w http.ResponseWriter, r *http.Request) {
	var req dismissRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.notifications.Dismiss(r.Context(), req.ID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
