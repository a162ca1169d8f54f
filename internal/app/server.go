// Package app wires the server process together with fx.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
	"podfetch/internal/config"
	"podfetch/internal/db"
	"podfetch/internal/events"
	"podfetch/internal/feed"
	"podfetch/internal/handlers"
	"podfetch/internal/logger"
	"podfetch/internal/middleware"
	"podfetch/internal/service"
	"podfetch/pkg/tasks"
)

const (
	feedTimeout           = 30 * time.Second
	sessionSweepInterval  = time.Hour
	serverShutdownTimeout = 10 * time.Second
)

// CreateServer returns the fx options of the HTTP server process.
func CreateServer() fx.Option {
	return fx.Options(
		fx.Provide(
			config.Load,
			NewLogger,
			NewStore,
			NewRedisClient,
			NewTaskClient,
			NewHub,
			NewPublisher,
			NewFeedSource,
			NewMapping,
			service.NewUserManagementService,
			service.NewNotificationService,
			service.NewSettingsService,
			NewPodcastService,
			NewAuthenticator,
			NewRateLimiter,
			NewHandlers,
			NewRouter,
			NewHTTPServer,
		),
		fx.Invoke(StartRelay, StartSessionSweeper, func(*http.Server) {}),
	)
}

func NewLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.LogLevel)
}

func NewStore(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) *db.Store {
	store := db.EstablishConnection(cfg.Database.URL, cfg.Database.ConnectionOptions(), log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("closing database connection...")
			return store.Close()
		},
	})
	return store
}

func NewRedisClient(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return client.Close() },
	})
	return client
}

func NewTaskClient(lc fx.Lifecycle, cfg *config.Config) tasks.TaskEnqueuer {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return client.Close() },
	})
	return client
}

// NewHub starts the websocket hub for the lifetime of the app.
func NewHub(lc fx.Lifecycle, log zerolog.Logger) *events.Hub {
	hub := events.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return hub
}

// NewPublisher publishes through Redis so that events of every process
// reach the clients of every server.
func NewPublisher(client *redis.Client) events.Publisher {
	return events.NewRedisPublisher(client)
}

func NewFeedSource() feed.FeedSource {
	return feed.NewFetcher(feedTimeout)
}

func NewMapping(cfg *config.Config) service.MappingService {
	return service.NewMappingService(cfg.HTTP.ServerURL)
}

func NewPodcastService(store *db.Store, source feed.FeedSource, enqueuer tasks.TaskEnqueuer, publisher events.Publisher,
	mapping service.MappingService, cfg *config.Config) *service.PodcastService {
	return service.NewPodcastService(store, source, enqueuer, publisher, mapping, cfg.PodcastDir)
}

func NewAuthenticator(store *db.Store, cfg *config.Config, log zerolog.Logger) *middleware.Authenticator {
	return middleware.NewAuthenticator(store, cfg.Auth, log)
}

func NewRateLimiter(cfg *config.Config, log zerolog.Logger) *middleware.RateLimiterMiddleware {
	return middleware.NewRateLimiterMiddleware(rate.Limit(cfg.HTTP.RateLimitRPS), cfg.HTTP.RateLimitBurst, log)
}

func NewHandlers(store *db.Store, users *service.UserManagementService, podcasts *service.PodcastService,
	notifications *service.NotificationService, settings *service.SettingsService, hub *events.Hub,
	cfg *config.Config, log zerolog.Logger) *handlers.Handlers {
	return handlers.New(store, users, podcasts, notifications, settings, hub, handlers.Options{
		ServerURL:      cfg.HTTP.ServerURL,
		PanicOnDBError: cfg.Database.PanicOnDBError,
		Logger:         log,
	})
}

// NewRouter mounts the API and the downloaded podcast files.
func NewRouter(h *handlers.Handlers, auth *middleware.Authenticator, limiter *middleware.RateLimiterMiddleware,
	cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	h.Register(router, auth, limiter)
	router.PathPrefix("/podcasts/").Handler(http.StripPrefix("/podcasts/", http.FileServer(http.Dir(cfg.PodcastDir))))
	return router
}

func NewHTTPServer(lc fx.Lifecycle, router *mux.Router, cfg *config.Config, log zerolog.Logger) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           c.Handler(middleware.Recover(cfg.Database.PanicOnDBError, log)(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info().Str("addr", srv.Addr).Str("server_url", cfg.HTTP.ServerURL).Msg("starting HTTP server")
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("HTTP server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down HTTP server...")
			ctx, cancel := context.WithTimeout(ctx, serverShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

// StartRelay forwards events published by workers to websocket clients.
func StartRelay(lc fx.Lifecycle, client *redis.Client, hub *events.Hub, log zerolog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := events.Relay(ctx, client, hub, log); err != nil {
					log.Error().Err(err).Msg("event relay stopped")
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// StartSessionSweeper removes expired sessions once an hour.
func StartSessionSweeper(lc fx.Lifecycle, store *db.Store, log zerolog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(sessionSweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						n, err := store.DeleteExpiredSessions(ctx)
						if err != nil {
							log.Error().Err(err).Msg("failed to delete expired sessions")
							continue
						}
						if n > 0 {
							log.Debug().Int64("sessions", n).Msg("deleted expired sessions")
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
