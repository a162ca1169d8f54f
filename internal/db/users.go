package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"podfetch/internal/models"
)

// ErrInviteUsed is returned when an invite has already been accepted.
var ErrInviteUsed = errors.New("invite already accepted")

const userColumns = "id, username, role, password, explicit_consent, created_at"

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return getOptional[models.User](ctx, s, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

func (s *Store) GetUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

// InsertUser creates the user; password is the already hashed value.
func (s *Store) InsertUser(ctx context.Context, u models.User) (*models.User, error) {
	u.CreatedAt = now()
	id, err := s.InsertID(ctx, "INSERT INTO users (username, role, password, explicit_consent, created_at) VALUES (?, ?, ?, ?, ?)",
		u.Username, u.Role, u.Password, u.ExplicitConsent, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	u.ID = int(id)
	return &u, nil
}

// OnboardUser accepts the invite and creates the user in one transaction.
// Only one caller can win an invite; the others get ErrInviteUsed and leave
// no user behind.
func (s *Store) OnboardUser(ctx context.Context, inviteID string, u models.User) (*models.User, error) {
	u.CreatedAt = now()
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, s.q("UPDATE invites SET accepted_at = ? WHERE id = ? AND accepted_at IS NULL"), u.CreatedAt, inviteID)
		if err != nil {
			return fmt.Errorf("accept invite: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("accept invite: %w", err)
		}
		if n == 0 {
			return ErrInviteUsed
		}

		id, err := s.insertID(ctx, tx, "INSERT INTO users (username, role, password, explicit_consent, created_at) VALUES (?, ?, ?, ?, ?)",
			u.Username, u.Role, u.Password, u.ExplicitConsent, u.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert user %q: %w", u.Username, err)
		}
		u.ID = int(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, username, role string, explicitConsent bool) error {
	_, err := s.db.ExecContext(ctx, s.q("UPDATE users SET role = ?, explicit_consent = ? WHERE username = ?"), role, explicitConsent, username)
	if err != nil {
		return fmt.Errorf("update role of %q: %w", username, err)
	}
	return nil
}

// DeleteUser removes the user together with their favorites and sessions.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range []string{
		"DELETE FROM favorites WHERE username = ?",
		"DELETE FROM sessions WHERE username = ?",
		"DELETE FROM users WHERE username = ?",
	} {
		if _, err := tx.ExecContext(ctx, s.q(query), username); err != nil {
			return fmt.Errorf("delete user %q: %w", username, err)
		}
	}
	return tx.Commit()
}
