package db

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	retryAttempts = 3
	retryBackoff  = 50 * time.Millisecond
)

// withRetry repeats fn while the database reports lock contention.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("database busy, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout")
}
