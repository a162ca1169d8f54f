package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"podfetch/internal/models"
)

// InsertSession mints a session for username valid for ttl.
func (s *Store) InsertSession(ctx context.Context, username string, ttl time.Duration) (*models.Session, error) {
	session := models.Session{
		Username:  username,
		SessionID: uuid.NewString(),
		Expires:   now().Add(ttl),
	}
	_, err := s.db.ExecContext(ctx, s.q("INSERT INTO sessions (username, session_id, expires) VALUES (?, ?, ?)"),
		session.Username, session.SessionID, session.Expires)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &session, nil
}

// FindSession returns the session if it exists and has not expired.
func (s *Store) FindSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return getOptional[models.Session](ctx, s, "SELECT username, session_id, expires FROM sessions WHERE session_id = ? AND expires > ?",
		sessionID, now())
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, s.q("DELETE FROM sessions WHERE session_id = ?"), sessionID)
	return err
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM sessions WHERE expires <= ?"), now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
