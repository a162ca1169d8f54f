package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type inviteRequest struct {
	Role            string `json:"role"`
	ExplicitConsent bool   `json:"explicitConsent"`
}

func (h *Handlers) CreateInvite(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var req inviteRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	invite, err := h.users.CreateInvite(r.Context(), me, req.Role, req.ExplicitConsent)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, invite)
}

func (h *Handlers) GetInvites(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	invites, err := h.users.GetInvites(r.Context(), me)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, invites)
}

func (h *Handlers) GetInvite(w http.ResponseWriter, r *http.Request) {
	invite, err := h.users.GetInvite(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, invite)
}
