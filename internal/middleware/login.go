package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"podfetch/internal/apperr"
	"podfetch/internal/models"
)

// SessionCookie builds the cookie handed out after a login.
func SessionCookie(s *models.Session) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.SessionID,
		Path:     "/api",
		Expires:  s.Expires,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
	}
}

// Login serves POST /api/2/auth/{username}/login.json.
//
// A still valid session cookie is answered with a refreshed cookie. Otherwise
// the basic auth user must match the path. The configured admin pair is
// accepted without a session; stored users get a new session cookie.
func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		session, err := a.store.FindSession(ctx, cookie.Value)
		if err != nil {
			apperr.Write(w, a.logger, apperr.Storage(err, "Error loading session"))
			return
		}
		if session != nil {
			http.SetCookie(w, SessionCookie(session))
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	pathUser := mux.Vars(r)["username"]
	username, password, ok := r.BasicAuth()
	if !ok || username != pathUser {
		apperr.Write(w, a.logger, apperr.Unauthorized())
		return
	}

	if username == a.cfg.Username && password == a.cfg.Password {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, err := a.checkCredentials(ctx, username, password)
	if err != nil {
		apperr.Write(w, a.logger, err)
		return
	}
	if user == nil {
		apperr.Write(w, a.logger, apperr.Unauthorized())
		return
	}

	session, err := a.store.InsertSession(ctx, user.Username, a.cfg.SessionTTL)
	if err != nil {
		apperr.Write(w, a.logger, apperr.Storage(err, "Error creating session"))
		return
	}
	a.logger.Info().Str("username", user.Username).Msg("session created")

	http.SetCookie(w, SessionCookie(session))
	w.WriteHeader(http.StatusOK)
}
