package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podfetch/internal/db"
	"podfetch/internal/models"
	"podfetch/internal/test"
)

func addPodcast(t *testing.T, store *db.Store, feed string) *models.Podcast {
	t.Helper()
	p, err := store.AddPodcast(context.Background(), "Podcast "+feed, "dir-"+feed, "Podcast "+feed, feed, "https://img.example/"+feed+".png")
	require.NoError(t, err)
	return p
}

func TestPodcasts(t *testing.T) {
	store := test.NewSQLiteStore(t)
	ctx := context.Background()

	p := addPodcast(t, store, "a")
	assert.Equal(t, p.ImageURL, p.OriginalImageURL)
	assert.True(t, p.Active)

	found, err := store.FindPodcastByFeed(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, p.ID, found.ID)

	byDir, err := store.FindPodcastByDirectory(ctx, "dir-a")
	require.NoError(t, err)
	require.NotNil(t, byDir)

	missing, err := store.FindPodcast(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.UpdatePodcastMetadata(ctx, p.ID, models.PodcastMetadata{Summary: "s", Language: "en", Explicit: "yes", Author: "me"}))
	found, err = store.FindPodcast(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Language)
	assert.Equal(t, "en", *found.Language)
	assert.True(t, found.IsExplicit())

	require.NoError(t, store.UpdatePodcastActive(ctx, p.ID, false))
	active, err := store.GetActivePodcasts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.ErrorIs(t, store.UpdatePodcastActive(ctx, 999, true), db.ErrNotFound)
}

func TestFavoriteUpsertKeepsOneRow(t *testing.T) {
	store := test.NewSQLiteStore(t)
	ctx := context.Background()
	p := addPodcast(t, store, "fav")

	require.NoError(t, store.UpdatePodcastFavor(ctx, p.ID, true, "alice"))
	require.NoError(t, store.UpdatePodcastFavor(ctx, p.ID, false, "alice"))

	var count int
	require.NoError(t, store.DB().GetContext(ctx, &count, "SELECT COUNT(*) FROM favorites WHERE podcast_id = ? AND username = ?", p.ID, "alice"))
	assert.Equal(t, 1, count)

	fav, err := store.FindFavorite(ctx, p.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, fav)
	assert.False(t, fav.Favored)

	require.NoError(t, store.UpdatePodcastFavor(ctx, p.ID, true, "alice"))
	favored, err := store.GetFavoredPodcasts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, favored, 1)
	assert.Equal(t, p.ID, favored[0].ID)

	require.NoError(t, store.DeleteFavoritesByUsername(ctx, "alice"))
	favored, err = store.GetFavoredPodcasts(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, favored)
}

func TestSearchPodcasts(t *testing.T) {
	store := test.NewSQLiteStore(t)
	ctx := context.Background()
	alpha := addPodcast(t, store, "alpha")
	beta := addPodcast(t, store, "beta")
	addPodcast(t, store, "empty")

	for i, date := range []string{"2024-01-01", "2024-03-01"} {
		_, err := store.AddEpisode(ctx, models.PodcastEpisode{PodcastID: alpha.ID, EpisodeID: "a" + date, Name: "ep", URL: "u" + date, DateOfRecording: date, TotalTime: i})
		require.NoError(t, err)
	}
	_, err := store.AddEpisode(ctx, models.PodcastEpisode{PodcastID: beta.ID, EpisodeID: "b1", Name: "ep", URL: "ub1", DateOfRecording: "2024-02-01"})
	require.NoError(t, err)
	require.NoError(t, store.UpdatePodcastFavor(ctx, beta.ID, true, "bob"))

	results, err := store.SearchPodcasts(ctx, db.PodcastSearch{Order: models.OrderDesc, OrderBy: models.OrderByPublishedDate, Username: "bob"})
	require.NoError(t, err)
	require.Len(t, results, 2, "podcasts without episodes are excluded and duplicates collapsed")
	assert.Equal(t, alpha.ID, results[0].ID)
	assert.Nil(t, results[0].Favored)
	require.NotNil(t, results[1].Favored)
	assert.True(t, *results[1].Favored)

	title := "bet"
	results, err = store.SearchPodcasts(ctx, db.PodcastSearch{Order: models.OrderAsc, OrderBy: models.OrderByTitle, Title: &title, Username: "bob"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, beta.ID, results[0].ID)

	favored, err := store.SearchPodcastsFavored(ctx, db.PodcastSearch{Order: models.OrderAsc, OrderBy: models.OrderByTitle, Username: "bob"})
	require.NoError(t, err)
	require.Len(t, favored, 1)
	assert.Equal(t, beta.ID, favored[0].ID)
}

func TestEpisodes(t *testing.T) {
	store := test.NewSQLiteStore(t)
	ctx := context.Background()
	p := addPodcast(t, store, "eps")

	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"} {
		_, err := store.AddEpisode(ctx, models.PodcastEpisode{
			PodcastID: p.ID, EpisodeID: "guid-" + date, Name: "Episode " + date, URL: "https://cdn/" + date + ".mp3",
			DateOfRecording: date, Description: "about golang",
		})
		require.NoError(t, err)
	}

	last, err := store.GetLastEpisodes(ctx, p.ID, 5)
	require.NoError(t, err)
	require.Len(t, last, 5)
	assert.Equal(t, "2024-01-06", last[0].DateOfRecording)
	assert.Equal(t, models.EpisodeNotDownloaded, last[0].Status)

	cursor := "2024-01-03"
	page, err := store.GetEpisodesOfPodcast(ctx, p.ID, &cursor)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "2024-01-02", page[0].DateOfRecording)

	hits, err := store.QueryEpisodes(ctx, "golang")
	require.NoError(t, err)
	assert.Len(t, hits, 6)

	url := "https://cdn/2024-01-01.mp3"
	downloaded, err := store.CheckIfDownloaded(ctx, url)
	require.NoError(t, err)
	assert.False(t, downloaded)

	require.NoError(t, store.UpdateEpisodeStatus(ctx, url, models.EpisodeDownloaded))
	downloaded, err = store.CheckIfDownloaded(ctx, url)
	require.NoError(t, err)
	assert.True(t, downloaded)

	_, err = store.CheckIfDownloaded(ctx, "https://unknown")
	assert.ErrorIs(t, err, db.ErrNotFound)

	byPodcast, err := store.GetDownloadedEpisodesByPodcast(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, byPodcast, 1)
	require.NotNil(t, byPodcast[0].DownloadTime)
	assert.WithinDuration(t, time.Now(), *byPodcast[0].DownloadTime, time.Minute)

	old, err := store.GetEpisodesOlderThanDays(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, old, 1)
	old, err = store.GetEpisodesOlderThanDays(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, old)

	require.NoError(t, store.MarkEpisodeNotDownloaded(ctx, byPodcast[0].ID))
	all, err := store.GetDownloadedEpisodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	found, err := store.FindEpisodeByEpisodeID(ctx, p.ID, "guid-2024-01-04")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Episode 2024-01-04", found.Name)
}

func TestEpisodesRequireExistingPodcast(t *testing.T) {
	store := test.NewSQLiteStore(t)

	_, err := store.AddEpisode(context.Background(), models.PodcastEpisode{PodcastID: 404, EpisodeID: "x", Name: "x", URL: "x", DateOfRecording: "2024"})
	assert.Error(t, err, "foreign keys are enforced on every connection")
}

func TestNotificationDismissal(t *testing.T) {
	store := test.NewSQLiteStore(t)
	ctx := context.Background()

	// Same second; .1 must sort before .12.
	base := time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC)
	for _, n := range []struct {
		msg    string
		offset time.Duration
	}{
		{"first", 100 * time.Millisecond},
		{"second", 120 * time.Millisecond},
	} {
		require.NoError(t, store.InsertNotification(ctx, models.Notification{
			TypeOfMessage: "Download", Message: n.msg, CreatedAt: models.FormatNotificationTime(base.Add(n.offset)),
			Status: models.NotificationUnread,
		}))
	}

	unread, err := store.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "second", unread[0].Message)

	require.NoError(t, store.UpdateStatusOfNotification(ctx, unread[0].ID, models.NotificationDismissed))

	unread, err = store.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "first", unread[0].Message)
}

func TestSettingsSingleton(t *testing.T) {
	store := test.NewSQLiteStore(t)
	ctx := context.Background()

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings)

	require.NoError(t, store.InsertDefaultSettings(ctx))

	var count int
	require.NoError(t, store.DB().GetContext(ctx, &count, "SELECT COUNT(*) FROM settings"))
	assert.Equal(t, 1, count)

	settings, err = store.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, models.DefaultSetting(), *settings)

	settings.AutoCleanup = true
	settings.AutoCleanupDays = 7
	updated, err := store.UpdateSettings(ctx, *settings)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.AutoCleanupDays)

	again, err := store.GetOrCreateSettings(ctx)
	require.NoError(t, err)
	assert.True(t, again.AutoCleanup)
	require.NoError(t, store.DB().GetContext(ctx, &count, "SELECT COUNT(*) FROM settings"))
	assert.Equal(t, 1, count)
}

func TestUsersInvitesSessions(t *testing.T) {
	store := test.NewSQLiteStore(t)
	ctx := context.Background()

	hash := "digest"
	user, err := store.InsertUser(ctx, models.User{Username: "carol", Role: models.RoleUser, Password: &hash})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = store.InsertUser(ctx, models.User{Username: "carol", Role: models.RoleUser})
	assert.Error(t, err, "usernames are unique")

	require.NoError(t, store.UpdateUserRole(ctx, "carol", models.RoleAdmin, true))
	found, err := store.FindUserByUsername(ctx, "carol")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsAdmin())
	assert.True(t, found.ExplicitConsent)

	invite, err := store.CreateInvite(ctx, models.RoleUploader, false)
	require.NoError(t, err)
	_, err = store.OnboardUser(ctx, invite.ID, models.User{Username: "dora", Role: invite.Role})
	require.NoError(t, err)
	fetched, err := store.FindInvite(ctx, invite.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.AcceptedAt)

	session, err := store.InsertSession(ctx, "carol", time.Hour)
	require.NoError(t, err)
	got, err := store.FindSession(ctx, session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "carol", got.Username)

	expired, err := store.InsertSession(ctx, "carol", -time.Hour)
	require.NoError(t, err)
	got, err = store.FindSession(ctx, expired.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
	n, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.DeleteUser(ctx, "carol"))
	found, err = store.FindUserByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Nil(t, found)
	got, err = store.FindSession(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOnboardUserIsAtomic(t *testing.T) {
	store := test.NewSQLiteStore(t)
	ctx := context.Background()

	invite, err := store.CreateInvite(ctx, models.RoleUploader, true)
	require.NoError(t, err)

	user, err := store.OnboardUser(ctx, invite.ID, models.User{Username: "dana", Role: invite.Role})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = store.OnboardUser(ctx, invite.ID, models.User{Username: "eve", Role: invite.Role})
	assert.ErrorIs(t, err, db.ErrInviteUsed)
	found, err := store.FindUserByUsername(ctx, "eve")
	require.NoError(t, err)
	assert.Nil(t, found)

	// A failed insert leaves the invite open.
	fresh, err := store.CreateInvite(ctx, models.RoleUser, false)
	require.NoError(t, err)
	_, err = store.OnboardUser(ctx, fresh.ID, models.User{Username: "dana", Role: fresh.Role})
	require.Error(t, err)
	reloaded, err := store.FindInvite(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.AcceptedAt)
}
