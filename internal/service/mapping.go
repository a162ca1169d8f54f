package service

import (
	"time"

	"podfetch/internal/feed"
	"podfetch/internal/models"
)

// PodcastDto is a podcast as returned by the API.
type PodcastDto struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	DirectoryID      string  `json:"directoryId"`
	DirectoryName    string  `json:"directoryName"`
	RSSFeed          string  `json:"rssfeed"`
	ImageURL         string  `json:"imageUrl"`
	OriginalImageURL string  `json:"originalImageUrl"`
	Summary          *string `json:"summary"`
	Language         *string `json:"language"`
	Explicit         *string `json:"explicit"`
	Keywords         *string `json:"keywords"`
	LastBuildDate    *string `json:"lastBuildDate"`
	Author           *string `json:"author"`
	Active           bool    `json:"active"`
	Favorites        bool    `json:"favorites"`
}

// PodcastEpisodeDto is an episode as returned by the API.
type PodcastEpisodeDto struct {
	ID              int        `json:"id"`
	PodcastID       int        `json:"podcastId"`
	EpisodeID       string     `json:"episodeId"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	DateOfRecording string     `json:"dateOfRecording"`
	ImageURL        string     `json:"imageUrl"`
	TotalTime       int        `json:"totalTime"`
	LocalURL        string     `json:"localUrl"`
	LocalImageURL   string     `json:"localImageUrl"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	DownloadTime    *time.Time `json:"downloadTime"`
	GUID            string     `json:"guid"`
}

// UserDto hides the password digest.
type UserDto struct {
	ID              int       `json:"id"`
	Username        string    `json:"username"`
	Role            string    `json:"role"`
	ExplicitConsent bool      `json:"explicitConsent"`
	CreatedAt       time.Time `json:"createdAt"`
}

// MappingService projects stored rows into API responses. Image paths are
// made absolute against the server URL.
type MappingService struct {
	serverURL string
}

func NewMappingService(serverURL string) MappingService {
	return MappingService{serverURL: serverURL}
}

func (m MappingService) MapPodcast(p models.Podcast) PodcastDto {
	return PodcastDto{
		ID:               p.ID,
		Name:             p.Name,
		DirectoryID:      p.DirectoryID,
		DirectoryName:    p.DirectoryName,
		RSSFeed:          p.RSSFeed,
		ImageURL:         feed.ImageURL(m.serverURL, p),
		OriginalImageURL: p.OriginalImageURL,
		Summary:          p.Summary,
		Language:         p.Language,
		Explicit:         p.Explicit,
		Keywords:         p.Keywords,
		LastBuildDate:    p.LastBuildDate,
		Author:           p.Author,
		Active:           p.Active,
	}
}

// MapPodcastWithFavorite marks the podcast as favorite only when a
// favorite row exists and is set.
func (m MappingService) MapPodcastWithFavorite(p models.PodcastWithFavorite) PodcastDto {
	dto := m.MapPodcast(p.Podcast)
	dto.Favorites = p.Favored != nil && *p.Favored
	return dto
}

func (m MappingService) MapPodcasts(ps []models.PodcastWithFavorite) []PodcastDto {
	out := make([]PodcastDto, 0, len(ps))
	for _, p := range ps {
		out = append(out, m.MapPodcastWithFavorite(p))
	}
	return out
}

func (m MappingService) MapEpisode(e models.PodcastEpisode) PodcastEpisodeDto {
	return PodcastEpisodeDto{
		ID:              e.ID,
		PodcastID:       e.PodcastID,
		EpisodeID:       e.EpisodeID,
		Name:            e.Name,
		URL:             e.URL,
		DateOfRecording: e.DateOfRecording,
		ImageURL:        e.ImageURL,
		TotalTime:       e.TotalTime,
		LocalURL:        feed.Absolute(m.serverURL, e.LocalURL),
		LocalImageURL:   feed.Absolute(m.serverURL, e.LocalImageURL),
		Description:     e.Description,
		Status:          e.Status,
		DownloadTime:    e.DownloadTime,
		GUID:            e.GUID,
	}
}

func (m MappingService) MapEpisodes(es []models.PodcastEpisode) []PodcastEpisodeDto {
	out := make([]PodcastEpisodeDto, 0, len(es))
	for _, e := range es {
		out = append(out, m.MapEpisode(e))
	}
	return out
}

func (m MappingService) MapUser(u models.User) UserDto {
	return UserDto{
		ID:              u.ID,
		Username:        u.Username,
		Role:            u.Role,
		ExplicitConsent: u.ExplicitConsent,
		CreatedAt:       u.CreatedAt,
	}
}
