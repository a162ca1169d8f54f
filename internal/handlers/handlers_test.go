package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"podfetch/internal/config"
	"podfetch/internal/db"
	"podfetch/internal/events"
	"podfetch/internal/feed"
	"podfetch/internal/middleware"
	"podfetch/internal/models"
	"podfetch/internal/service"
	"podfetch/internal/test"
)

const serverURL = "http://podfetch.test/"

type stubSource struct{}

func (stubSource) Fetch(context.Context, string) (*feed.ParsedPodcast, error) {
	return &feed.ParsedPodcast{Title: "Stub Show", ImageURL: "https://remote/cover.png"}, nil
}

type testServer struct {
	router   *mux.Router
	store    *db.Store
	enqueuer *test.MockTaskEnqueuer
}

func newTestServer(t *testing.T, auth config.AuthConfig) *testServer {
	store := test.NewSQLiteStore(t)
	enqueuer := &test.MockTaskEnqueuer{}
	logger := zerolog.Nop()
	mapping := service.NewMappingService(serverURL)

	h := New(store,
		service.NewUserManagementService(store),
		service.NewPodcastService(store, stubSource{}, enqueuer, events.Nop{}, mapping, t.TempDir()),
		service.NewNotificationService(store, events.Nop{}),
		service.NewSettingsService(store),
		http.NotFoundHandler(),
		Options{ServerURL: serverURL, Logger: logger},
	)

	router := mux.NewRouter()
	h.Register(router, middleware.NewAuthenticator(store, auth, logger), middleware.NewRateLimiterMiddleware(rate.Inf, 1, logger))
	return &testServer{router: router, store: store, enqueuer: enqueuer}
}

func (s *testServer) do(t *testing.T, method, path, body string, configure ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range configure {
		c(req)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func asAdmin(cfg config.AuthConfig) func(*http.Request) {
	return func(r *http.Request) { r.SetBasicAuth(cfg.Username, cfg.Password) }
}

var noBasicAuth = config.AuthConfig{Username: "admin"}

func TestHealth(t *testing.T) {
	s := newTestServer(t, noBasicAuth)
	rr := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","backend":"sqlite"}`, rr.Body.String())
}

func TestInviteOnboardingFlow(t *testing.T) {
	cfg := config.AuthConfig{BasicAuth: true, Username: "admin", Password: "secret", SessionTTL: time.Hour}
	s := newTestServer(t, cfg)

	rr := s.do(t, http.MethodPost, "/api/v1/invites", `{"role":"uploader","explicitConsent":true}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/invites", `{"role":"uploader","explicitConsent":true}`, asAdmin(cfg))
	require.Equal(t, http.StatusOK, rr.Code)
	var invite models.Invite
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &invite))
	assert.Equal(t, models.RoleUploader, invite.Role)

	rr = s.do(t, http.MethodGet, "/api/v1/users/invites/"+invite.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/users/", `{"username":"jo","password":"correct horse","inviteId":"`+invite.ID+`"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var user service.UserDto
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "jo", user.Username)
	assert.NotContains(t, rr.Body.String(), "password")

	rr = s.do(t, http.MethodGet, "/api/v1/users/me", "", func(r *http.Request) { r.SetBasicAuth("jo", "correct horse") })
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/users", "", func(r *http.Request) { r.SetBasicAuth("jo", "correct horse") })
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/v1/users/jo/role", `{"role":"admin","explicitConsent":false}`, asAdmin(cfg))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"admin"`)

	rr = s.do(t, http.MethodDelete, "/api/v1/users/jo", "", asAdmin(cfg))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t, noBasicAuth)

	rr := s.do(t, http.MethodGet, "/api/v1/podcasts/42", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Podcast not found", body["Message"])
	assert.Equal(t, "error", body["Object"])

	rr = s.do(t, http.MethodPut, "/api/v1/notifications/dismiss", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNotificationsEndpoints(t *testing.T) {
	s := newTestServer(t, noBasicAuth)
	ctx := context.Background()
	require.NoError(t, s.store.InsertNotification(ctx, models.Notification{
		TypeOfMessage: "Download", Message: "done", CreatedAt: time.Now().UTC().Format(time.RFC3339), Status: models.NotificationUnread,
	}))

	rr := s.do(t, http.MethodGet, "/api/v1/notifications/unread", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var unread []models.Notification
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &unread))
	require.Len(t, unread, 1)

	body, _ := json.Marshal(dismissRequest{ID: unread[0].ID})
	rr = s.do(t, http.MethodPut, "/api/v1/notifications/dismiss", string(body))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/notifications/unread", "")
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestPodcastEndpoints(t *testing.T) {
	s := newTestServer(t, noBasicAuth)
	ctx := context.Background()

	rr := s.do(t, http.MethodPost, "/api/v1/podcasts/feed", `{"rssFeedUrl":"https://remote/feed.xml"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var podcast service.PodcastDto
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &podcast))
	assert.Equal(t, "Stub Show", podcast.Name)
	assert.Len(t, s.enqueuer.EnqueuedTasks, 1)

	rr = s.do(t, http.MethodPost, "/api/v1/podcasts/feed", `{"rssFeedUrl":"https://remote/feed.xml"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	_, err := s.store.AddEpisode(ctx, models.PodcastEpisode{
		PodcastID: podcast.ID, EpisodeID: "ep-1", Name: "Pilot", URL: "https://remote/1.mp3", DateOfRecording: "2024-03-01T10:00:00Z",
		Status: models.EpisodeNotDownloaded,
	})
	require.NoError(t, err)

	rr = s.do(t, http.MethodPut, "/api/v1/podcasts/favored", `{"podcastId":`+strconv.Itoa(podcast.ID)+`,"favored":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/podcasts?order=DESC&orderOption=TITLE&favoredOnly=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var found []service.PodcastDto
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.True(t, found[0].Favorites)

	rr = s.do(t, http.MethodGet, "/api/v1/podcasts/"+strconv.Itoa(podcast.ID)+"/episodes", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"episodeId":"ep-1"`)

	rr = s.do(t, http.MethodGet, "/api/v1/episodes/search?q=Pilot", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Pilot")

	rr = s.do(t, http.MethodPost, "/api/v1/podcasts/"+strconv.Itoa(podcast.ID)+"/refresh", "")
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Len(t, s.enqueuer.EnqueuedTasks, 2)
}

func TestRSSEndpoints(t *testing.T) {
	s := newTestServer(t, noBasicAuth)
	ctx := context.Background()

	p, err := s.store.AddPodcast(ctx, "Local Show", "dir-1", "Local Show", "https://remote/local.xml", "https://remote/cover.png")
	require.NoError(t, err)

	rr := s.do(t, http.MethodGet, "/api/v1/rss/"+strconv.Itoa(p.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "xml")
	parsed, err := gofeed.NewParser().ParseString(rr.Body.String())
	require.NoError(t, err)
	assert.Empty(t, parsed.Items)

	_, err = s.store.AddEpisode(ctx, models.PodcastEpisode{
		PodcastID: p.ID, EpisodeID: "guid-1", Name: "One", URL: "https://remote/one.mp3", DateOfRecording: "2024-03-01T10:00:00Z",
		Status: models.EpisodeNotDownloaded,
	})
	require.NoError(t, err)
	require.NoError(t, s.store.UpdateEpisodeStatus(ctx, "https://remote/one.mp3", models.EpisodeDownloaded))

	rr = s.do(t, http.MethodGet, "/api/v1/rss", "")
	require.Equal(t, http.StatusOK, rr.Code)
	parsed, err = gofeed.NewParser().ParseString(rr.Body.String())
	require.NoError(t, err)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "guid-1", parsed.Items[0].GUID)
	require.Len(t, parsed.Items[0].Enclosures, 1)
	assert.Equal(t, "https://remote/one.mp3", parsed.Items[0].Enclosures[0].URL)

	rr = s.do(t, http.MethodGet, "/api/v1/rss/9999", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	s := newTestServer(t, noBasicAuth)

	rr := s.do(t, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var set models.Setting
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &set))
	assert.Equal(t, models.DefaultSetting(), set)

	set.AutoCleanup = true
	body, _ := json.Marshal(set)
	rr = s.do(t, http.MethodPut, "/api/v1/settings", string(body))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"autoCleanup":true`)
}

func TestStorageErrorPanicsWhenConfigured(t *testing.T) {
	store := test.NewSQLiteStore(t)
	h := New(store, nil, nil, service.NewNotificationService(store, events.Nop{}), nil, nil,
		Options{ServerURL: serverURL, PanicOnDBError: true, Logger: zerolog.Nop()})
	require.NoError(t, store.Close())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread", nil)
	assert.Panics(t, func() { h.UnreadNotifications(httptest.NewRecorder(), req) })
}
