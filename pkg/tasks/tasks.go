package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeRefreshPodcast     = "podcast:refresh"
	TypeRefreshAllPodcasts = "podcasts:refresh-all"
	TypeCleanupEpisodes    = "episodes:cleanup"
)

type RefreshPodcastTaskPayload struct {
	PodcastID int
}

func NewRefreshPodcastTask(podcastID int) (*asynq.Task, error) {
	payload, err := json.Marshal(RefreshPodcastTaskPayload{PodcastID: podcastID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRefreshPodcast, payload), nil
}

func NewRefreshAllPodcastsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeRefreshAllPodcasts, nil), nil
}

func NewCleanupEpisodesTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeCleanupEpisodes, nil), nil
}
