package service

import (
	"context"

	"podfetch/internal/apperr"
	"podfetch/internal/db"
	"podfetch/internal/models"
)

type SettingsService struct {
	store *db.Store
}

func NewSettingsService(store *db.Store) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the settings, writing the defaults on first use.
func (s *SettingsService) Get(ctx context.Context) (*models.Setting, error) {
	set, err := s.store.GetOrCreateSettings(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading settings")
	}
	return set, nil
}

func (s *SettingsService) Update(ctx context.Context, set models.Setting) (*models.Setting, error) {
	if set.AutoCleanupDays < 0 {
		return nil, apperr.BadRequest("autoCleanupDays must not be negative")
	}
	if set.PodcastPrefill < 0 {
		return nil, apperr.BadRequest("podcastPrefill must not be negative")
	}
	if _, err := s.Get(ctx); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateSettings(ctx, set)
	if err != nil {
		return nil, apperr.Storage(err, "Error updating settings")
	}
	return updated, nil
}
