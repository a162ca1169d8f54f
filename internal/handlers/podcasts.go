package handlers

import (
	"net/http"
	"strconv"

	"podfetch/internal/apperr"
	"podfetch/internal/db"
	"podfetch/internal/models"
)

type subscribeRequest struct {
	RSSFeedURL string `json:"rssFeedUrl"`
}

type favorRequest struct {
	PodcastID int  `json:"podcastId"`
	Favored   bool `json:"favored"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

// SearchPodcasts lists podcasts with episodes. Query parameters: order
// (ASC, DESC), orderOption (TITLE, PUBLISHEDDATE), title and favoredOnly.
func (h *Handlers) SearchPodcasts(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	q := r.URL.Query()
	search := db.PodcastSearch{
		Order:    models.ParseOrderCriteria(q.Get("order")),
		OrderBy:  models.ParseOrderOption(q.Get("orderOption")),
		Username: me.Username,
	}
	if title := q.Get("title"); title != "" {
		search.Title = &title
	}
	favoredOnly, _ := strconv.ParseBool(q.Get("favoredOnly"))

	podcasts, err := h.podcasts.Search(r.Context(), search, favoredOnly)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, podcasts)
}

func (h *Handlers) ListPodcasts(w http.ResponseWriter, r *http.Request) {
	podcasts, err := h.podcasts.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, podcasts)
}

func (h *Handlers) FavoredPodcasts(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	podcasts, err := h.podcasts.Favored(r.Context(), me.Username)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, podcasts)
}

func (h *Handlers) UpdateFavor(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var req favorRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.podcasts.SetFavor(r.Context(), req.PodcastID, req.Favored, me.Username); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Subscribe adds a podcast by feed URL. Plain users may not add podcasts.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if me.Role == models.RoleUser {
		h.fail(w, apperr.New("You do not have permissions to add podcasts", "").WithCode(http.StatusForbidden))
		return
	}

	var req subscribeRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	podcast, err := h.podcasts.Subscribe(r.Context(), req.RSSFeedURL)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Info().Str("feed", req.RSSFeedURL).Str("username", me.Username).Msg("podcast subscribed")
	h.writeJSON(w, http.StatusOK, podcast)
}

func (h *Handlers) GetPodcast(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	id, err := intVar(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	podcast, err := h.podcasts.GetWithFavorite(r.Context(), id, me.Username)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, podcast)
}

// PodcastEpisodes pages backwards from the last_podcast_episode date.
func (h *Handlers) PodcastEpisodes(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	var lastDate *string
	if last := r.URL.Query().Get("last_podcast_episode"); last != "" {
		lastDate = &last
	}

	episodes, err := h.podcasts.Episodes(r.Context(), id, lastDate)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, episodes)
}

func (h *Handlers) RefreshPodcast(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.podcasts.Refresh(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) SetPodcastActive(w http.ResponseWriter, r *http.Request) {
	me, err := requester(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if me.Role == models.RoleUser {
		h.fail(w, apperr.New("You do not have permissions to change podcasts", "").WithCode(http.StatusForbidden))
		return
	}
	id, err := intVar(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req activeRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.podcasts.SetActive(r.Context(), id, req.Active); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) SearchEpisodes(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		h.writeJSON(w, http.StatusOK, []any{})
		return
	}
	episodes, err := h.podcasts.SearchEpisodes(r.Context(), term)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, episodes)
}
