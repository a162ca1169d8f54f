package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"podfetch/internal/models"
)

// UpdatePodcastFavor records the user's preference for a podcast, updating
// the existing row or inserting a new one.
func (s *Store) UpdatePodcastFavor(ctx context.Context, podcastID int, favor bool, username string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		err := tx.GetContext(ctx, &count, s.q("SELECT COUNT(*) FROM favorites WHERE podcast_id = ? AND username = ?"), podcastID, username)
		if err != nil {
			return fmt.Errorf("look up favorite: %w", err)
		}

		if count > 0 {
			_, err = tx.ExecContext(ctx, s.q("UPDATE favorites SET favored = ? WHERE podcast_id = ? AND username = ?"), favor, podcastID, username)
		} else {
			_, err = tx.ExecContext(ctx, s.q("INSERT INTO favorites (username, podcast_id, favored) VALUES (?, ?, ?)"), username, podcastID, favor)
		}
		if err != nil {
			return fmt.Errorf("save favorite: %w", err)
		}
		return nil
	})
}

func (s *Store) FindFavorite(ctx context.Context, podcastID int, username string) (*models.Favorite, error) {
	return getOptional[models.Favorite](ctx, s, "SELECT username, podcast_id, favored FROM favorites WHERE podcast_id = ? AND username = ?",
		podcastID, username)
}

// GetFavoredPodcasts lists the podcasts the user marked as favorite.
func (s *Store) GetFavoredPodcasts(ctx context.Context, username string) ([]models.PodcastWithFavorite, error) {
	podcasts := []models.PodcastWithFavorite{}
	err := s.db.SelectContext(ctx, &podcasts, s.q("SELECT "+podcastColumns+`, f.favored
		FROM podcasts p
		INNER JOIN favorites f ON f.podcast_id = p.id
		WHERE f.favored = ? AND f.username = ?
		ORDER BY p.name`), true, username)
	if err != nil {
		return nil, fmt.Errorf("load favored podcasts: %w", err)
	}
	return podcasts, nil
}

func (s *Store) DeleteFavoritesByUsername(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, s.q("DELETE FROM favorites WHERE username = ?"), username)
	return err
}

// PodcastSearch narrows and orders a podcast search.
type PodcastSearch struct {
	Order    models.OrderCriteria
	OrderBy  models.OrderOption
	Title    *string
	Username string
}

type searchRow struct {
	models.PodcastWithFavorite
	DateOfRecording string `db:"date_of_recording"`
}

// SearchPodcasts returns podcasts with at least one episode, each with the
// user's favorite state when one exists.
func (s *Store) SearchPodcasts(ctx context.Context, search PodcastSearch) ([]models.PodcastWithFavorite, error) {
	return s.searchPodcasts(ctx, "LEFT JOIN favorites f ON f.podcast_id = p.id AND f.username = ?", search)
}

// SearchPodcastsFavored is SearchPodcasts restricted to podcasts the user
// has a favorite row for.
func (s *Store) SearchPodcastsFavored(ctx context.Context, search PodcastSearch) ([]models.PodcastWithFavorite, error) {
	return s.searchPodcasts(ctx, "INNER JOIN favorites f ON f.podcast_id = p.id AND f.username = ?", search)
}

func (s *Store) searchPodcasts(ctx context.Context, favoriteJoin string, search PodcastSearch) ([]models.PodcastWithFavorite, error) {
	query := "SELECT " + podcastColumns + `, f.favored, e.date_of_recording
		FROM podcasts p
		INNER JOIN podcast_episodes e ON e.podcast_id = p.id
		` + favoriteJoin
	args := []any{search.Username}

	if search.Title != nil {
		query += " WHERE p.name LIKE ?"
		args = append(args, "%"+*search.Title+"%")
	}

	direction := "ASC"
	if search.Order == models.OrderDesc {
		direction = "DESC"
	}
	if search.OrderBy == models.OrderByTitle {
		query += " ORDER BY p.name " + direction
	} else {
		query += " ORDER BY e.date_of_recording " + direction
	}

	rows := []searchRow{}
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("search podcasts: %w", err)
	}

	// one result per podcast, in the position of its first episode
	seen := make(map[int]bool, len(rows))
	result := make([]models.PodcastWithFavorite, 0, len(rows))
	for _, r := range rows {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		result = append(result, r.PodcastWithFavorite)
	}
	return result, nil
}
