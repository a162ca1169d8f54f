package models

import "time"

// Download states of an episode.
const (
	EpisodeNotDownloaded = "N"
	EpisodePending       = "P"
	EpisodeDownloaded    = "D"
)

type PodcastEpisode struct {
	ID              int        `db:"id" json:"id"`
	PodcastID       int        `db:"podcast_id" json:"podcastId"`
	EpisodeID       string     `db:"episode_id" json:"episodeId"`
	Name            string     `db:"name" json:"name"`
	URL             string     `db:"url" json:"url"`
	DateOfRecording string     `db:"date_of_recording" json:"dateOfRecording"`
	ImageURL        string     `db:"image_url" json:"imageUrl"`
	TotalTime       int        `db:"total_time" json:"totalTime"`
	LocalURL        string     `db:"local_url" json:"localUrl"`
	LocalImageURL   string     `db:"local_image_url" json:"localImageUrl"`
	Description     string     `db:"description" json:"description"`
	Status          string     `db:"status" json:"status"`
	DownloadTime    *time.Time `db:"download_time" json:"downloadTime"`
	GUID            string     `db:"guid" json:"guid"`
}

func (e PodcastEpisode) IsDownloaded() bool {
	return e.Status == EpisodeDownloaded
}
