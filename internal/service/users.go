package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"podfetch/internal/apperr"
	"podfetch/internal/db"
	"podfetch/internal/models"
)

// MinPasswordLength is the shortest password accepted at onboarding.
const MinPasswordLength = 8

// HashPassword returns the hex encoded sha256 digest stored for a user.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// UserManagementService implements onboarding and administration of
// users and invites.
type UserManagementService struct {
	store *db.Store
}

func NewUserManagementService(store *db.Store) *UserManagementService {
	return &UserManagementService{store: store}
}

// Onboard creates a user from an open invite.
func (s *UserManagementService) Onboard(ctx context.Context, username, password, inviteID string) (*models.User, error) {
	if username == "" {
		return nil, apperr.BadRequest("Username must not be empty")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.BadRequest("Password must be at least 8 characters long")
	}

	invite, err := s.store.FindInvite(ctx, inviteID)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading invite")
	}
	if invite == nil {
		return nil, apperr.NotFound("Invite")
	}
	if invite.AcceptedAt != nil {
		return nil, apperr.BadRequest("Invite has already been used")
	}

	existing, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading user")
	}
	if existing != nil {
		return nil, apperr.BadRequest("Username already taken")
	}

	hash := HashPassword(password)
	user, err := s.store.OnboardUser(ctx, invite.ID, models.User{
		Username:        username,
		Role:            invite.Role,
		Password:        &hash,
		ExplicitConsent: invite.ExplicitConsent,
	})
	if errors.Is(err, db.ErrInviteUsed) {
		return nil, apperr.BadRequest("Invite has already been used")
	}
	if err != nil {
		return nil, apperr.Storage(err, "Error creating user")
	}
	return user, nil
}

func (s *UserManagementService) GetUsers(ctx context.Context, requester models.User) ([]models.User, error) {
	if !requester.IsAdmin() {
		return nil, apperr.New("You do not have permissions to list users", "").WithCode(http.StatusForbidden)
	}
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading users")
	}
	return users, nil
}

func (s *UserManagementService) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading user")
	}
	if user == nil {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

// UpdateRole changes the role of username. Only admins may do so.
func (s *UserManagementService) UpdateRole(ctx context.Context, requester models.User, username, role string, explicitConsent bool) error {
	if !requester.IsAdmin() {
		return apperr.NoPermissionToUpdateUserRole()
	}
	if !models.ValidRole(role) {
		return apperr.BadRequest("Unknown role " + role)
	}
	if _, err := s.GetUser(ctx, username); err != nil {
		return err
	}
	if err := s.store.UpdateUserRole(ctx, username, role, explicitConsent); err != nil {
		return apperr.Storage(err, "Error updating role")
	}
	return nil
}

func (s *UserManagementService) CreateInvite(ctx context.Context, requester models.User, role string, explicitConsent bool) (*models.Invite, error) {
	if !requester.IsAdmin() {
		return nil, apperr.NoPermissionToOnboardUser()
	}
	if !models.ValidRole(role) {
		return nil, apperr.BadRequest("Unknown role " + role)
	}
	invite, err := s.store.CreateInvite(ctx, role, explicitConsent)
	if err != nil {
		return nil, apperr.Storage(err, "Error creating invite")
	}
	return invite, nil
}

func (s *UserManagementService) GetInvites(ctx context.Context, requester models.User) ([]models.Invite, error) {
	if !requester.IsAdmin() {
		return nil, apperr.NoPermissionToOnboardUser()
	}
	invites, err := s.store.GetInvites(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading invites")
	}
	return invites, nil
}

// GetInvite is public so that invitees can see their invite before signing up.
func (s *UserManagementService) GetInvite(ctx context.Context, id string) (*models.Invite, error) {
	invite, err := s.store.FindInvite(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading invite")
	}
	if invite == nil {
		return nil, apperr.NotFound("Invite")
	}
	return invite, nil
}

// DeleteUser removes username. Admins may delete anyone but themselves.
func (s *UserManagementService) DeleteUser(ctx context.Context, requester models.User, username string) error {
	if !requester.IsAdmin() {
		return apperr.NoPermissionToDeleteUser()
	}
	if requester.Username == username {
		return apperr.BadRequest("You cannot delete yourself")
	}
	if _, err := s.GetUser(ctx, username); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, username); err != nil {
		return apperr.Storage(err, "Error deleting user")
	}
	return nil
}
