package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"podfetch/internal/apperr"
	"podfetch/internal/service"
)

type onboardRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	InviteID string `json:"inviteId"`
}

type roleRequest struct {
	Role            string `json:"role"`
	ExplicitConsent bool   `json:"explicitConsent"`
}

func (h *Handlers) Onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	user, err := h.users.Onboard(r.Context(), req.Username, req.Password, req.InviteID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Info().Str("username", user.Username).Str("role", user.Role).Msg("user onboarded")
	h.writeJSON(w, http.StatusOK, h.mapping.MapUser(*user))
}

func (h *Handlers) GetUsers(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	users, err := h.users.GetUsers(r.Context(), me)
	if err != nil {
		h.fail(w, err)
		return
	}

	out := make([]service.UserDto, 0, len(users))
	for _, u := range users {
		out = append(out, h.mapping.MapUser(u))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// GetUser returns the user named in the path. "me" resolves to the caller;
// only admins may look at other users.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	username := mux.Vars(r)["username"]
	if username == "me" {
		username = me.Username
	}
	if username != me.Username && !me.IsAdmin() {
		h.fail(w, apperr.New("You do not have permissions to view this user", "").WithCode(http.StatusForbidden))
		return
	}
	if username == me.Username && me.ID == 0 {
		h.writeJSON(w, http.StatusOK, h.mapping.MapUser(me))
		return
	}

	user, err := h.users.GetUser(r.Context(), username)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.mapping.MapUser(*user))
}

func (h *Handlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var req roleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	username := mux.Vars(r)["username"]
	if err := h.users.UpdateRole(r.Context(), me, username, req.Role, req.ExplicitConsent); err != nil {
		h.fail(w, err)
		return
	}
	user, err := h.users.GetUser(r.Context(), username)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.mapping.MapUser(*user))
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.users.DeleteUser(r.Context(), me, mux.Vars(r)["username"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
