package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"podfetch/internal/models"
)

func TestMapPodcastWithFavorite(t *testing.T) {
	m := NewMappingService("http://srv/")
	p := models.Podcast{ID: 1, Name: "Show", ImageURL: "podcasts/show/image.png", OriginalImageURL: "https://remote/img.png"}

	dto := m.MapPodcastWithFavorite(models.PodcastWithFavorite{Podcast: p})
	assert.False(t, dto.Favorites, "no favorite row")
	assert.Equal(t, "http://srv/podcasts/show/image.png", dto.ImageURL)
	assert.Equal(t, "https://remote/img.png", dto.OriginalImageURL)

	favored := false
	dto = m.MapPodcastWithFavorite(models.PodcastWithFavorite{Podcast: p, Favored: &favored})
	assert.False(t, dto.Favorites)

	favored = true
	dto = m.MapPodcastWithFavorite(models.PodcastWithFavorite{Podcast: p, Favored: &favored})
	assert.True(t, dto.Favorites)
}

func TestMapEpisode(t *testing.T) {
	m := NewMappingService("http://srv/")
	dto := m.MapEpisode(models.PodcastEpisode{ID: 2, LocalURL: "podcasts/show/1.mp3", URL: "https://remote/1.mp3", Status: models.EpisodeDownloaded})

	assert.Equal(t, "http://srv/podcasts/show/1.mp3", dto.LocalURL)
	assert.Equal(t, "https://remote/1.mp3", dto.URL)
	assert.Equal(t, "", dto.LocalImageURL)
}

func TestHashPassword(t *testing.T) {
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", HashPassword("password"))
}

func TestDirectoryName(t *testing.T) {
	assert.Equal(t, "Go Time", DirectoryName("Go Time"))
	assert.Equal(t, "AC_DC Radio", DirectoryName("AC/DC Radio"))
	assert.Equal(t, "podcast", DirectoryName("../"))
}
