package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"podfetch/internal/apperr"
	"podfetch/internal/db"
	"podfetch/internal/middleware"
	"podfetch/internal/models"
	"podfetch/internal/service"
)

// Handlers holds the dependencies of the HTTP controllers.
type Handlers struct {
	store         *db.Store
	users         *service.UserManagementService
	podcasts      *service.PodcastService
	notifications *service.NotificationService
	settings      *service.SettingsService
	mapping       service.MappingService
	ws            http.Handler

	serverURL      string
	panicOnDBError bool
	logger         zerolog.Logger
}

// Options carries the non-service settings of the controllers.
type Options struct {
	ServerURL      string
	PanicOnDBError bool
	Logger         zerolog.Logger
}

func New(store *db.Store, users *service.UserManagementService, podcasts *service.PodcastService,
	notifications *service.NotificationService, settings *service.SettingsService, ws http.Handler, opts Options) *Handlers {
	return &Handlers{
		store:          store,
		users:          users,
		podcasts:       podcasts,
		notifications:  notifications,
		settings:       settings,
		mapping:        service.NewMappingService(opts.ServerURL),
		ws:             ws,
		serverURL:      opts.ServerURL,
		panicOnDBError: opts.PanicOnDBError,
		logger:         opts.Logger,
	}
}

// fail renders err. Storage errors panic instead when configured so, and
// the recover middleware decides what happens to the request.
func (h *Handlers) fail(w http.ResponseWriter, err error) {
	if h.panicOnDBError && middleware.IsStorageError(err) {
		panic(err)
	}
	apperr.Write(w, h.logger, err)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("could not encode response")
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.BadRequest("Invalid request body").WithEvent(apperr.Event{Type: "decode", Payload: err.Error()})
	}
	return nil
}

func intVar(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, apperr.BadRequest("Invalid " + name)
	}
	return v, nil
}

// requester returns the authenticated user of the request.
func requester(r *http.Request) (models.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return models.User{}, apperr.Unauthorized()
	}
	return *user, nil
}

// Health reports whether the database answers.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": h.store.Backend().String()})
}

func (h *Handlers) Websocket(w http.ResponseWriter, r *http.Request) {
	h.ws.ServeHTTP(w, r)
}
