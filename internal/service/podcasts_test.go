package service

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podfetch/internal/db"
	"podfetch/internal/feed"
	"podfetch/internal/models"
	"podfetch/internal/test"
	"podfetch/pkg/tasks"
)

type stubSource struct{ parsed *feed.ParsedPodcast }

func (s stubSource) Fetch(context.Context, string) (*feed.ParsedPodcast, error) { return s.parsed, nil }

func newPodcastService(t *testing.T) (*PodcastService, *db.Store, *test.MockTaskEnqueuer, *recordingPublisher, string) {
	store := test.NewSQLiteStore(t)
	enq := &test.MockTaskEnqueuer{}
	pub := &recordingPublisher{}
	dir := t.TempDir()
	src := stubSource{parsed: &feed.ParsedPodcast{
		Title:    "Go/Time",
		ImageURL: "https://remote/cover.png",
		Metadata: models.PodcastMetadata{Language: "en", Author: "Changelog"},
	}}
	return NewPodcastService(store, src, enq, pub, NewMappingService("http://srv/"), dir), store, enq, pub, dir
}

func TestSubscribe(t *testing.T) {
	svc, store, enq, pub, dir := newPodcastService(t)
	ctx := context.Background()

	dto, err := svc.Subscribe(ctx, "https://remote/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, "Go/Time", dto.Name)
	assert.Equal(t, "Go_Time", dto.DirectoryName)
	assert.Equal(t, "https://remote/cover.png", dto.ImageURL)

	info, err := os.Stat(filepath.Join(dir, "Go_Time"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.Len(t, enq.EnqueuedTasks, 1)
	assert.Equal(t, tasks.TypeRefreshPodcast, enq.EnqueuedTasks[0].Type())
	require.Len(t, pub.messages, 1)

	stored, err := store.FindPodcast(ctx, dto.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Author)
	assert.Equal(t, "Changelog", *stored.Author)

	_, err = svc.Subscribe(ctx, "https://remote/feed.xml")
	assert.EqualError(t, err, "Podcast already exists")
}

func TestFavoritesThroughService(t *testing.T) {
	svc, store, _, _, _ := newPodcastService(t)
	ctx := context.Background()

	p, err := store.AddPodcast(ctx, "Show", "d1", "Show", "feed-1", "")
	require.NoError(t, err)
	_, err = store.AddEpisode(ctx, models.PodcastEpisode{PodcastID: p.ID, EpisodeID: "e", Name: "e", URL: "u", DateOfRecording: "2024-01-01"})
	require.NoError(t, err)

	err = svc.SetFavor(ctx, 999, true, "hank")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	require.NoError(t, svc.SetFavor(ctx, p.ID, true, "hank"))
	dto, err := svc.GetWithFavorite(ctx, p.ID, "hank")
	require.NoError(t, err)
	assert.True(t, dto.Favorites)

	favored, err := svc.Favored(ctx, "hank")
	require.NoError(t, err)
	assert.Len(t, favored, 1)

	results, err := svc.Search(ctx, db.PodcastSearch{Order: models.OrderAsc, OrderBy: models.OrderByTitle, Username: "ivy"}, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Favorites)

	results, err = svc.Search(ctx, db.PodcastSearch{Order: models.OrderAsc, OrderBy: models.OrderByTitle, Username: "ivy"}, true)
	require.NoError(t, err)
	assert.Empty(t, results)

	episodes, err := svc.Episodes(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Len(t, episodes, 1)

	require.NoError(t, svc.SetActive(ctx, p.ID, false))
	assert.Equal(t, http.StatusNotFound, statusOf(t, svc.SetActive(ctx, 999, false)))
}
