package handlers

import (
	"net/http"

	"podfetch/internal/apperr"
	"podfetch/internal/models"
)

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	set, err := h.settings.Get(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, set)
}

// UpdateSettings is restricted to admins.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !me.IsAdmin() {
		h.fail(w, apperr.New("You do not have permissions to change settings", "").WithCode(http.StatusForbidden))
		return
	}

	var set models.Setting
	if err := decode(r, &set); err != nil {
		h.fail(w, err)
		return
	}
	updated, err := h.settings.Update(r.Context(), set)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}
