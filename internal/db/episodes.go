package db

import (
	"context"
	"fmt"
	"time"

	"podfetch/internal/models"
)

// EpisodePageSize is the number of episodes returned per page of a podcast.
const EpisodePageSize = 75

const episodeColumns = `id, podcast_id, episode_id, name, url, date_of_recording, image_url, total_time,
	local_url, local_image_url, description, status, download_time, guid`

func (s *Store) selectEpisodes(ctx context.Context, query string, args ...any) ([]models.PodcastEpisode, error) {
	episodes := []models.PodcastEpisode{}
	if err := s.db.SelectContext(ctx, &episodes, s.q(query), args...); err != nil {
		return nil, err
	}
	return episodes, nil
}

// GetEpisodesOlderThanDays returns episodes downloaded more than days ago.
func (s *Store) GetEpisodesOlderThanDays(ctx context.Context, days int) ([]models.PodcastEpisode, error) {
	cutoff := now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.selectEpisodes(ctx, "SELECT "+episodeColumns+" FROM podcast_episodes WHERE download_time < ?", cutoff)
}

func (s *Store) GetDownloadedEpisodes(ctx context.Context) ([]models.PodcastEpisode, error) {
	return s.selectEpisodes(ctx, "SELECT "+episodeColumns+" FROM podcast_episodes WHERE status = ? ORDER BY date_of_recording DESC",
		models.EpisodeDownloaded)
}

func (s *Store) GetDownloadedEpisodesByPodcast(ctx context.Context, podcastID int) ([]models.PodcastEpisode, error) {
	return s.selectEpisodes(ctx, "SELECT "+episodeColumns+" FROM podcast_episodes WHERE status = ? AND podcast_id = ? ORDER BY date_of_recording DESC",
		models.EpisodeDownloaded, podcastID)
}

// QueryEpisodes matches the term against episode names and descriptions.
func (s *Store) QueryEpisodes(ctx context.Context, term string) ([]models.PodcastEpisode, error) {
	like := "%" + term + "%"
	return s.selectEpisodes(ctx, "SELECT "+episodeColumns+" FROM podcast_episodes WHERE name LIKE ? OR description LIKE ?", like, like)
}

// UpdateEpisodeStatus sets the status of the episode with the given
// download URL and stamps the download time.
func (s *Store) UpdateEpisodeStatus(ctx context.Context, url, status string) error {
	_, err := s.db.ExecContext(ctx, s.q("UPDATE podcast_episodes SET status = ?, download_time = ? WHERE url = ?"), status, now(), url)
	if err != nil {
		return fmt.Errorf("update episode status: %w", err)
	}
	return nil
}

// CheckIfDownloaded reports whether the episode behind url is stored locally.
func (s *Store) CheckIfDownloaded(ctx context.Context, url string) (bool, error) {
	episode, err := getOptional[models.PodcastEpisode](ctx, s, "SELECT "+episodeColumns+" FROM podcast_episodes WHERE url = ?", url)
	if err != nil {
		return false, err
	}
	if episode == nil {
		return false, ErrNotFound
	}
	return episode.IsDownloaded(), nil
}

// GetEpisodesOfPodcast pages through a podcast newest first. lastDate is
// the recording date of the last episode of the previous page.
func (s *Store) GetEpisodesOfPodcast(ctx context.Context, podcastID int, lastDate *string) ([]models.PodcastEpisode, error) {
	if lastDate != nil {
		return s.selectEpisodes(ctx, fmt.Sprintf("SELECT %s FROM podcast_episodes WHERE podcast_id = ? AND date_of_recording < ? ORDER BY date_of_recording DESC LIMIT %d",
			episodeColumns, EpisodePageSize), podcastID, *lastDate)
	}
	return s.selectEpisodes(ctx, fmt.Sprintf("SELECT %s FROM podcast_episodes WHERE podcast_id = ? ORDER BY date_of_recording DESC LIMIT %d",
		episodeColumns, EpisodePageSize), podcastID)
}

func (s *Store) GetLastEpisodes(ctx context.Context, podcastID, limit int) ([]models.PodcastEpisode, error) {
	return s.selectEpisodes(ctx, fmt.Sprintf("SELECT %s FROM podcast_episodes WHERE podcast_id = ? ORDER BY date_of_recording DESC LIMIT %d",
		episodeColumns, limit), podcastID)
}

func (s *Store) FindEpisode(ctx context.Context, id int) (*models.PodcastEpisode, error) {
	return getOptional[models.PodcastEpisode](ctx, s, "SELECT "+episodeColumns+" FROM podcast_episodes WHERE id = ?", id)
}

// FindEpisodeByEpisodeID finds an episode of a podcast by its feed guid.
func (s *Store) FindEpisodeByEpisodeID(ctx context.Context, podcastID int, episodeID string) (*models.PodcastEpisode, error) {
	return getOptional[models.PodcastEpisode](ctx, s, "SELECT "+episodeColumns+" FROM podcast_episodes WHERE podcast_id = ? AND episode_id = ?",
		podcastID, episodeID)
}

func (s *Store) AddEpisode(ctx context.Context, e models.PodcastEpisode) (int64, error) {
	if e.Status == "" {
		e.Status = models.EpisodeNotDownloaded
	}
	id, err := s.InsertID(ctx, `INSERT INTO podcast_episodes
		(podcast_id, episode_id, name, url, date_of_recording, image_url, total_time, local_url, local_image_url, description, status, download_time, guid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.PodcastID, e.EpisodeID, e.Name, e.URL, e.DateOfRecording, e.ImageURL, e.TotalTime,
		e.LocalURL, e.LocalImageURL, e.Description, e.Status, e.DownloadTime, e.GUID)
	if err != nil {
		return 0, fmt.Errorf("insert episode %q: %w", e.EpisodeID, err)
	}
	return id, nil
}

// MarkEpisodeNotDownloaded clears the local copy of an episode.
func (s *Store) MarkEpisodeNotDownloaded(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE podcast_episodes
		SET status = ?, local_url = '', local_image_url = '', download_time = NULL
		WHERE id = ?`), models.EpisodeNotDownloaded, id)
	if err != nil {
		return fmt.Errorf("reset episode %d: %w", id, err)
	}
	return nil
}
