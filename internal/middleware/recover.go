package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"podfetch/internal/apperr"
)

// Recover turns handler panics into 500 responses. With panicOnDBError set,
// panics carrying a storage error are propagated so that database failures
// abort the request instead of being answered.
func Recover(panicOnDBError bool, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				if panicOnDBError && IsStorageError(err) {
					logger.Error().Err(err).Str("path", r.URL.Path).Msg("database error, aborting request")
					panic(rec)
				}

				logger.Error().Err(err).Str("path", r.URL.Path).Msg("recovered from panic")
				apperr.Write(w, logger, apperr.Wrap(err).WithMsg("Internal server error").WithCode(http.StatusInternalServerError))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// IsStorageError reports whether err is a wrapped storage failure.
func IsStorageError(err error) bool {
	var e *apperr.Error
	return errors.As(err, &e) && e.HasSource() && e.Code() == http.StatusInternalServerError
}
