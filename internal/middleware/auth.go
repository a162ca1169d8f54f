package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"podfetch/internal/apperr"
	"podfetch/internal/config"
	"podfetch/internal/models"
	"podfetch/internal/service"
)

type contextKey string

// UserContextKey is the key for the user in the context.
const UserContextKey = contextKey("user")

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "sessionid"

// UsernameHeader carries the resolved username to downstream handlers.
const UsernameHeader = "username"

const sessionCacheTTL = 5 * time.Minute

// SessionStore is the storage used to authenticate requests.
type SessionStore interface {
	FindSession(ctx context.Context, sessionID string) (*models.Session, error)
	InsertSession(ctx context.Context, username string, ttl time.Duration) (*models.Session, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Authenticator resolves the user of a request from its session cookie or
// basic auth credentials.
type Authenticator struct {
	store    SessionStore
	cfg      config.AuthConfig
	sessions *cache.Cache
	logger   zerolog.Logger
}

func NewAuthenticator(store SessionStore, cfg config.AuthConfig, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		store:    store,
		cfg:      cfg,
		sessions: cache.New(sessionCacheTTL, 2*sessionCacheTTL),
		logger:   logger,
	}
}

// UserFromContext returns the user placed in the context by the middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func (a *Authenticator) admin() *models.User {
	return &models.User{Username: a.cfg.Username, Role: models.RoleAdmin, ExplicitConsent: true}
}

// Middleware rejects requests that carry neither a valid session nor valid
// credentials. Without basic auth every request acts as the admin.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			apperr.Write(w, a.logger, err)
			return
		}
		if user == nil {
			apperr.Write(w, a.logger, apperr.Unauthorized())
			return
		}

		r.Header.Set(UsernameHeader, user.Username)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*models.User, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		user, err := a.userForSession(r.Context(), cookie.Value)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	if !a.cfg.BasicAuth {
		return a.admin(), nil
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, nil
	}
	return a.checkCredentials(r.Context(), username, password)
}

// userForSession resolves an unexpired session. Session rows are cached for
// a few minutes; the user is loaded on every request so that deletions and
// role changes apply at once.
func (a *Authenticator) userForSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := a.session(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}

	user, err := a.store.FindUserByUsername(ctx, session.Username)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading user")
	}
	if user == nil {
		if session.Username != a.cfg.Username {
			return nil, nil
		}
		user = a.admin()
	}
	return user, nil
}

func (a *Authenticator) session(ctx context.Context, sessionID string) (*models.Session, error) {
	if cached, ok := a.sessions.Get(sessionID); ok {
		return cached.(*models.Session), nil
	}

	session, err := a.store.FindSession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading session")
	}
	if session == nil {
		return nil, nil
	}

	ttl := time.Until(session.Expires)
	if ttl > sessionCacheTTL {
		ttl = sessionCacheTTL
	}
	a.sessions.Set(sessionID, session, ttl)
	return session, nil
}

// checkCredentials accepts the configured admin pair or a stored user's
// password. Wrong credentials yield a nil user.
func (a *Authenticator) checkCredentials(ctx context.Context, username, password string) (*models.User, error) {
	if username == a.cfg.Username && password == a.cfg.Password {
		return a.admin(), nil
	}

	user, err := a.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading user")
	}
	if user == nil || user.Password == nil || *user.Password != service.HashPassword(password) {
		return nil, nil
	}
	return user, nil
}
