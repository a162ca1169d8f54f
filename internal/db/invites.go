package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"podfetch/internal/models"
)

const inviteColumns = "id, role, explicit_consent, created_at, accepted_at"

func (s *Store) CreateInvite(ctx context.Context, role string, explicitConsent bool) (*models.Invite, error) {
	invite := models.Invite{
		ID:              uuid.NewString(),
		Role:            role,
		ExplicitConsent: explicitConsent,
		CreatedAt:       now(),
	}
	_, err := s.db.ExecContext(ctx, s.q("INSERT INTO invites (id, role, explicit_consent, created_at) VALUES (?, ?, ?, ?)"),
		invite.ID, invite.Role, invite.ExplicitConsent, invite.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	return &invite, nil
}

func (s *Store) GetInvites(ctx context.Context) ([]models.Invite, error) {
	invites := []models.Invite{}
	if err := s.db.SelectContext(ctx, &invites, "SELECT "+inviteColumns+" FROM invites ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("load invites: %w", err)
	}
	return invites, nil
}

func (s *Store) FindInvite(ctx context.Context, id string) (*models.Invite, error) {
	return getOptional[models.Invite](ctx, s, "SELECT "+inviteColumns+" FROM invites WHERE id = ?", id)
}

func (s *Store) DeleteInvite(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.q("DELETE FROM invites WHERE id = ?"), id)
	return err
}
