package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"podfetch/internal/db"
	"podfetch/internal/events"
	"podfetch/internal/feed"
	"podfetch/internal/models"
	"podfetch/internal/service"
	"podfetch/pkg/tasks"
)

// Notification types written by the worker.
const (
	NotificationRefresh = "Refresh"
	NotificationCleanup = "Cleanup"
)

type TaskHandler struct {
	asynqClient   tasks.TaskEnqueuer
	store         *db.Store
	refresher     *feed.Refresher
	notifications *service.NotificationService
	publisher     events.Publisher
	podcastDir    string
	logger        zerolog.Logger
}

func NewTaskHandler(client tasks.TaskEnqueuer, store *db.Store, source feed.FeedSource, publisher events.Publisher,
	podcastDir string, logger zerolog.Logger) *TaskHandler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &TaskHandler{
		asynqClient:   client,
		store:         store,
		refresher:     feed.NewRefresher(store, source),
		notifications: service.NewNotificationService(store, publisher),
		publisher:     publisher,
		podcastDir:    podcastDir,
		logger:        logger,
	}
}

// Register binds every task type to its handler.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeRefreshPodcast, h.HandleRefreshPodcastTask)
	mux.HandleFunc(tasks.TypeRefreshAllPodcasts, h.HandleRefreshAllPodcastsTask)
	mux.HandleFunc(tasks.TypeCleanupEpisodes, h.HandleCleanupEpisodesTask)
}

func (h *TaskHandler) HandleRefreshPodcastTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.RefreshPodcastTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	podcast, err := h.store.FindPodcast(ctx, p.PodcastID)
	if err != nil {
		return fmt.Errorf("failed to load podcast %d: %w", p.PodcastID, err)
	}
	if podcast == nil {
		return fmt.Errorf("podcast %d does not exist: %w", p.PodcastID, asynq.SkipRetry)
	}
	if !podcast.Active {
		h.logger.Debug().Int("podcast_id", podcast.ID).Msg("skipping inactive podcast")
		return nil
	}

	added, err := h.refresher.Refresh(ctx, *podcast)
	if err != nil {
		return fmt.Errorf("failed to refresh podcast %d: %w", podcast.ID, err)
	}
	if len(added) == 0 {
		return nil
	}

	msg := fmt.Sprintf("%d new episodes of %s", len(added), podcast.Name)
	if err := h.notifications.Notify(ctx, NotificationRefresh, msg); err != nil {
		h.logger.Error().Err(err).Int("podcast_id", podcast.ID).Msg("failed to store notification")
	}
	if err := h.publisher.Publish(ctx, events.Message{
		Type:            events.TypeEpisodesAdded,
		Message:         msg,
		Podcast:         podcast,
		PodcastEpisodes: added,
	}); err != nil {
		h.logger.Warn().Err(err).Int("podcast_id", podcast.ID).Msg("failed to publish new episodes")
	}
	return nil
}

// HandleRefreshAllPodcastsTask fans out one refresh task per active podcast
// when automatic updates are enabled.
func (h *TaskHandler) HandleRefreshAllPodcastsTask(ctx context.Context, t *asynq.Task) error {
	settings, err := h.store.GetOrCreateSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.AutoUpdate {
		h.logger.Debug().Msg("automatic updates disabled")
		return nil
	}

	podcasts, err := h.store.GetActivePodcasts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active podcasts: %w", err)
	}

	for _, p := range podcasts {
		task, err := tasks.NewRefreshPodcastTask(p.ID)
		if err != nil {
			h.logger.Error().Err(err).Int("podcast_id", p.ID).Msg("failed to create refresh task")
			continue
		}
		if _, err := h.asynqClient.Enqueue(task); err != nil {
			h.logger.Error().Err(err).Int("podcast_id", p.ID).Msg("failed to enqueue refresh task")
			continue
		}
	}

	h.logger.Info().Int("podcasts", len(podcasts)).Msg("scheduled podcast refreshes")
	return nil
}

// HandleCleanupEpisodesTask drops local copies of episodes downloaded more
// than auto_cleanup_days ago.
func (h *TaskHandler) HandleCleanupEpisodesTask(ctx context.Context, t *asynq.Task) error {
	settings, err := h.store.GetOrCreateSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.AutoCleanup {
		return nil
	}

	episodes, err := h.store.GetEpisodesOlderThanDays(ctx, settings.AutoCleanupDays)
	if err != nil {
		return fmt.Errorf("failed to get old episodes: %w", err)
	}

	var removed []models.PodcastEpisode
	for _, e := range episodes {
		for _, local := range []string{e.LocalURL, e.LocalImageURL} {
			if err := h.removeLocal(local); err != nil {
				h.logger.Warn().Err(err).Int("episode_id", e.ID).Str("file", local).Msg("failed to remove local file")
			}
		}
		if err := h.store.MarkEpisodeNotDownloaded(ctx, e.ID); err != nil {
			return fmt.Errorf("failed to reset episode %d: %w", e.ID, err)
		}
		removed = append(removed, e)
	}
	if len(removed) == 0 {
		return nil
	}

	msg := fmt.Sprintf("Removed %d episodes older than %d days", len(removed), settings.AutoCleanupDays)
	if err := h.notifications.Notify(ctx, NotificationCleanup, msg); err != nil {
		h.logger.Error().Err(err).Msg("failed to store notification")
	}
	if err := h.publisher.Publish(ctx, events.Message{
		Type:            events.TypeEpisodesRemoved,
		Message:         msg,
		PodcastEpisodes: removed,
	}); err != nil {
		h.logger.Warn().Err(err).Msg("failed to publish removed episodes")
	}
	h.logger.Info().Int("episodes", len(removed)).Msg("cleaned up old episodes")
	return nil
}

// removeLocal deletes a file referenced by a local URL. Local URLs are
// relative to the server root and start with the podcasts directory name.
func (h *TaskHandler) removeLocal(localURL string) error {
	path := LocalPath(h.podcastDir, localURL)
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// LocalPath maps a local URL such as "podcasts/show/1.mp3" into podcastDir.
// Remote and empty URLs map to "".
func LocalPath(podcastDir, localURL string) string {
	if localURL == "" || strings.Contains(localURL, "://") {
		return ""
	}
	rel := filepath.Clean("/" + strings.TrimPrefix(localURL, "/"))
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimPrefix(rel, "podcasts/")
	return filepath.Join(podcastDir, rel)
}
