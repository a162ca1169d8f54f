package handlers

import (
	"net/http"

	"podfetch/internal/apperr"
	"podfetch/internal/feed"
)

const rssContentType = "application/xml; charset=utf-8"

// AggregateFeed serves every downloaded episode as one feed.
func (h *Handlers) AggregateFeed(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.store.GetDownloadedEpisodes(r.Context())
	if err != nil {
		h.fail(w, apperr.Storage(err, "Error loading episodes"))
		return
	}

	rss, err := feed.BuildAggregate(h.serverURL, episodes)
	if err != nil {
		h.logger.Error().Err(err).Msg("error generating RSS")
		h.fail(w, apperr.Wrap(err).WithMsg("Error generating feed").WithCode(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", rssContentType)
	w.Write([]byte(rss))
}

// PodcastFeed serves the downloaded episodes of one podcast.
func (h *Handlers) PodcastFeed(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	podcast, err := h.podcasts.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	episodes, err := h.store.GetDownloadedEpisodesByPodcast(r.Context(), id)
	if err != nil {
		h.fail(w, apperr.Storage(err, "Error loading episodes"))
		return
	}

	rss, err := feed.BuildPodcast(h.serverURL, *podcast, episodes)
	if err != nil {
		h.logger.Error().Err(err).Int("podcast_id", id).Msg("error generating RSS")
		h.fail(w, apperr.Wrap(err).WithMsg("Error generating feed").WithCode(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", rssContentType)
	w.Write([]byte(rss))
}
