package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"podfetch/internal/middleware"
)

// Register mounts every route on r. Routes under /api/v1 require
// authentication except onboarding, invite lookup, RSS and the websocket.
func (h *Handlers) Register(r *mux.Router, auth *middleware.Authenticator, limiter *middleware.RateLimiterMiddleware) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/api/2/auth/{username}/login.json", auth.Login).Methods(http.MethodPost)

	public := r.PathPrefix("/api/v1").Subrouter()
	public.HandleFunc("/users/", h.Onboard).Methods(http.MethodPost)
	public.HandleFunc("/users/invites/{id}", h.GetInvite).Methods(http.MethodGet)
	public.HandleFunc("/rss", h.AggregateFeed).Methods(http.MethodGet)
	public.HandleFunc("/rss/{id:[0-9]+}", h.PodcastFeed).Methods(http.MethodGet)
	public.HandleFunc("/ws", h.Websocket)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Middleware, limiter.Middleware)

	api.HandleFunc("/users", h.GetUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}/role", h.UpdateRole).Methods(http.MethodPut)
	api.HandleFunc("/users/{username}", h.DeleteUser).Methods(http.MethodDelete)

	api.HandleFunc("/invites", h.CreateInvite).Methods(http.MethodPost)
	api.HandleFunc("/invites", h.GetInvites).Methods(http.MethodGet)

	api.HandleFunc("/notifications/unread", h.UnreadNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/dismiss", h.DismissNotification).Methods(http.MethodPut)

	api.HandleFunc("/podcasts", h.SearchPodcasts).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/all", h.ListPodcasts).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/favored", h.FavoredPodcasts).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/favored", h.UpdateFavor).Methods(http.MethodPut)
	api.HandleFunc("/podcasts/feed", h.Subscribe).Methods(http.MethodPost)
	api.HandleFunc("/podcasts/{id:[0-9]+}", h.GetPodcast).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/{id:[0-9]+}/episodes", h.PodcastEpisodes).Methods(http.MethodGet)
	api.HandleFunc("/podcasts/{id:[0-9]+}/refresh", h.RefreshPodcast).Methods(http.MethodPost)
	api.HandleFunc("/podcasts/{id:[0-9]+}/active", h.SetPodcastActive).Methods(http.MethodPut)

	api.HandleFunc("/episodes/search", h.SearchEpisodes).Methods(http.MethodGet)

	api.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPut)
}
