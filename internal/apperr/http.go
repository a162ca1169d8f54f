package apperr

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Write renders err as an HTTP response. Wrapped causes only reach the log.
func Write(w http.ResponseWriter, logger zerolog.Logger, err error) {
	e := From(err)
	if e == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	ev := logger.Warn()
	if e.Code() >= http.StatusInternalServerError || e.HasSource() {
		ev = logger.Error()
	}
	ev.Str("kind", e.Kind().String()).Int("code", e.Code())
	if e.HasSource() {
		ev = ev.AnErr("cause", e.Unwrap())
	}
	ev.Msg(e.Error())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code())
	w.Write(e.Body())
}

// Named errors of the user and podcast management API.

func PodcastAlreadyExists() *Error {
	return New("Podcast already exists", "").WithCode(http.StatusBadRequest)
}

func NoPermissionToOnboardUser() *Error {
	return New("You do not have permissions to onboard a User", "").WithCode(http.StatusUnauthorized)
}

func NoPermissionToDeleteUser() *Error {
	return New("You do not have permissions to delete a User", "").WithCode(http.StatusForbidden)
}

func NoPermissionToUpdateUserRole() *Error {
	return New("You do not have permissions to update a User's role", "").WithCode(http.StatusForbidden)
}

func PodcastDirectoryCreation() *Error {
	return New("Error creating podcast directory", "").WithCode(http.StatusInternalServerError)
}

func NotFound(what string) *Error {
	return New(what+" not found", "").WithCode(http.StatusNotFound)
}

func Unauthorized() *Error {
	return Empty().WithCode(http.StatusUnauthorized)
}

func BadRequest(msg string) *Error {
	return New(msg, "").WithCode(http.StatusBadRequest)
}

// Storage wraps a database failure as an internal error.
func Storage(err error, msg string) *Error {
	return Wrap(err).WithMsg(msg).WithCode(http.StatusInternalServerError)
}
