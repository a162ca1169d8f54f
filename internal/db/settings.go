package db

import (
	"context"
	"fmt"

	"podfetch/internal/models"
)

const settingColumns = `id, auto_download, auto_update, auto_cleanup, auto_cleanup_days, podcast_prefill,
	replace_invalid_characters, use_existing_filename, replacement_strategy, episode_format, podcast_format`

// GetSettings returns the settings row, or nil when none has been written.
func (s *Store) GetSettings(ctx context.Context) (*models.Setting, error) {
	return getOptional[models.Setting](ctx, s, "SELECT "+settingColumns+" FROM settings ORDER BY id LIMIT 1")
}

func (s *Store) InsertDefaultSettings(ctx context.Context) error {
	d := models.DefaultSetting()
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.q("INSERT INTO settings ("+settingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
			d.ID, d.AutoDownload, d.AutoUpdate, d.AutoCleanup, d.AutoCleanupDays, d.PodcastPrefill,
			d.ReplaceInvalidCharacters, d.UseExistingFilename, d.ReplacementStrategy, d.EpisodeFormat, d.PodcastFormat)
		return err
	})
}

// UpdateSettings overwrites the settings row; the id of set is ignored.
func (s *Store) UpdateSettings(ctx context.Context, set models.Setting) (*models.Setting, error) {
	err := withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.q(`UPDATE settings SET auto_download = ?, auto_update = ?, auto_cleanup = ?,
			auto_cleanup_days = ?, podcast_prefill = ?, replace_invalid_characters = ?, use_existing_filename = ?,
			replacement_strategy = ?, episode_format = ?, podcast_format = ? WHERE id = ?`),
			set.AutoDownload, set.AutoUpdate, set.AutoCleanup, set.AutoCleanupDays, set.PodcastPrefill,
			set.ReplaceInvalidCharacters, set.UseExistingFilename, set.ReplacementStrategy, set.EpisodeFormat,
			set.PodcastFormat, models.SettingsID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	set.ID = models.SettingsID
	return &set, nil
}

// GetOrCreateSettings returns the settings, writing the defaults first if
// the table is empty.
func (s *Store) GetOrCreateSettings(ctx context.Context) (*models.Setting, error) {
	set, err := s.GetSettings(ctx)
	if err != nil || set != nil {
		return set, err
	}
	if err := s.InsertDefaultSettings(ctx); err != nil {
		return nil, fmt.Errorf("insert default settings: %w", err)
	}
	return s.GetSettings(ctx)
}
