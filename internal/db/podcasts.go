package db

import (
	"context"
	"fmt"

	"podfetch/internal/models"
)

const podcastColumns = `p.id, p.name, p.directory_id, p.directory_name, p.rssfeed, p.image_url,
	p.original_image_url, p.summary, p.language, p.explicit, p.keywords, p.last_build_date,
	p.author, p.active`

func (s *Store) GetPodcasts(ctx context.Context) ([]models.Podcast, error) {
	podcasts := []models.Podcast{}
	err := s.db.SelectContext(ctx, &podcasts, "SELECT "+podcastColumns+" FROM podcasts p ORDER BY p.name")
	if err != nil {
		return nil, fmt.Errorf("load podcasts: %w", err)
	}
	return podcasts, nil
}

// GetActivePodcasts returns the podcasts refreshed by the scheduler.
func (s *Store) GetActivePodcasts(ctx context.Context) ([]models.Podcast, error) {
	podcasts := []models.Podcast{}
	err := s.db.SelectContext(ctx, &podcasts, s.q("SELECT "+podcastColumns+" FROM podcasts p WHERE p.active = ? ORDER BY p.id"), true)
	if err != nil {
		return nil, fmt.Errorf("load active podcasts: %w", err)
	}
	return podcasts, nil
}

func (s *Store) FindPodcast(ctx context.Context, id int) (*models.Podcast, error) {
	return getOptional[models.Podcast](ctx, s, "SELECT "+podcastColumns+" FROM podcasts p WHERE p.id = ?", id)
}

// FindPodcastByDirectory looks a podcast up by its directory (track) id.
func (s *Store) FindPodcastByDirectory(ctx context.Context, directoryID string) (*models.Podcast, error) {
	return getOptional[models.Podcast](ctx, s, "SELECT "+podcastColumns+" FROM podcasts p WHERE p.directory_id = ?", directoryID)
}

func (s *Store) FindPodcastByFeed(ctx context.Context, feedURL string) (*models.Podcast, error) {
	return getOptional[models.Podcast](ctx, s, "SELECT "+podcastColumns+" FROM podcasts p WHERE p.rssfeed = ?", feedURL)
}

// AddPodcast stores a new subscription. The given image becomes both the
// cached and the original image until a download replaces the former.
func (s *Store) AddPodcast(ctx context.Context, name, directoryID, directoryName, feedURL, imageURL string) (*models.Podcast, error) {
	id, err := s.InsertID(ctx, `INSERT INTO podcasts (name, directory_id, directory_name, rssfeed, image_url, original_image_url, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, name, directoryID, directoryName, feedURL, imageURL, imageURL, true)
	if err != nil {
		return nil, fmt.Errorf("insert podcast %q: %w", feedURL, err)
	}
	podcast, err := s.FindPodcast(ctx, int(id))
	if err != nil {
		return nil, err
	}
	if podcast == nil {
		return nil, fmt.Errorf("podcast %d vanished after insert", id)
	}
	return podcast, nil
}

func (s *Store) UpdatePodcastMetadata(ctx context.Context, id int, meta models.PodcastMetadata) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE podcasts
		SET summary = ?, language = ?, explicit = ?, keywords = ?, last_build_date = ?, author = ?
		WHERE id = ?`),
		meta.Summary, meta.Language, meta.Explicit, meta.Keywords, meta.LastBuildDate, meta.Author, id)
	if err != nil {
		return fmt.Errorf("update podcast %d metadata: %w", id, err)
	}
	return nil
}

func (s *Store) UpdatePodcastImage(ctx context.Context, id int, imageURL string) error {
	_, err := s.db.ExecContext(ctx, s.q("UPDATE podcasts SET image_url = ? WHERE id = ?"), imageURL, id)
	return err
}

func (s *Store) UpdatePodcastActive(ctx context.Context, id int, active bool) error {
	res, err := s.db.ExecContext(ctx, s.q("UPDATE podcasts SET active = ? WHERE id = ?"), active, id)
	if err != nil {
		return fmt.Errorf("update podcast %d active: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
