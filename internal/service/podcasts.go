package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"podfetch/internal/apperr"
	"podfetch/internal/db"
	"podfetch/internal/events"
	"podfetch/internal/feed"
	"podfetch/internal/models"
	"podfetch/pkg/tasks"
)

// PodcastService subscribes to feeds and serves podcast and episode queries.
type PodcastService struct {
	store      *db.Store
	source     feed.FeedSource
	enqueuer   tasks.TaskEnqueuer
	publisher  events.Publisher
	mapping    MappingService
	podcastDir string
}

func NewPodcastService(store *db.Store, source feed.FeedSource, enqueuer tasks.TaskEnqueuer, publisher events.Publisher,
	mapping MappingService, podcastDir string) *PodcastService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PodcastService{
		store:      store,
		source:     source,
		enqueuer:   enqueuer,
		publisher:  publisher,
		mapping:    mapping,
		podcastDir: podcastDir,
	}
}

var unsafeDirChars = regexp.MustCompile(`[^\p{L}\p{N} ._-]+`)

// DirectoryName turns a podcast title into a directory name.
func DirectoryName(title string) string {
	name := strings.TrimSpace(unsafeDirChars.ReplaceAllString(title, "_"))
	name = strings.Trim(name, "._ ")
	if name == "" {
		return "podcast"
	}
	return name
}

// Subscribe adds the feed at feedURL and schedules its first refresh.
func (s *PodcastService) Subscribe(ctx context.Context, feedURL string) (*PodcastDto, error) {
	if feedURL == "" {
		return nil, apperr.BadRequest("Feed URL must not be empty")
	}
	existing, err := s.store.FindPodcastByFeed(ctx, feedURL)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading podcast")
	}
	if existing != nil {
		return nil, apperr.PodcastAlreadyExists()
	}

	parsed, err := s.source.Fetch(ctx, feedURL)
	if err != nil {
		return nil, apperr.New("Could not read the podcast feed", err.Error())
	}
	title := parsed.Title
	if title == "" {
		title = feedURL
	}

	dirName := DirectoryName(title)
	if err := os.MkdirAll(filepath.Join(s.podcastDir, dirName), 0o755); err != nil {
		log.Error().Err(err).Str("dir", dirName).Msg("could not create podcast directory")
		return nil, apperr.PodcastDirectoryCreation()
	}

	podcast, err := s.store.AddPodcast(ctx, title, uuid.NewString(), dirName, feedURL, parsed.ImageURL)
	if err != nil {
		return nil, apperr.Storage(err, "Error saving podcast")
	}
	if err := s.store.UpdatePodcastMetadata(ctx, podcast.ID, parsed.Metadata); err != nil {
		return nil, apperr.Storage(err, "Error saving podcast")
	}

	task, err := tasks.NewRefreshPodcastTask(podcast.ID)
	if err != nil {
		return nil, apperr.Wrap(err).WithMsg("Error scheduling refresh").WithCode(http.StatusInternalServerError)
	}
	if _, err := s.enqueuer.Enqueue(task); err != nil {
		log.Error().Err(err).Int("podcast_id", podcast.ID).Msg("could not enqueue refresh")
	}

	if err := s.publisher.Publish(ctx, events.Message{
		Type:    events.TypePodcastAdded,
		Message: fmt.Sprintf("Added podcast %s", podcast.Name),
		Podcast: podcast,
	}); err != nil {
		log.Warn().Err(err).Msg("could not publish podcast event")
	}

	dto := s.mapping.MapPodcast(*podcast)
	return &dto, nil
}

// Refresh schedules a refresh of one podcast.
func (s *PodcastService) Refresh(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	task, err := tasks.NewRefreshPodcastTask(id)
	if err != nil {
		return apperr.Wrap(err).WithMsg("Error scheduling refresh").WithCode(http.StatusInternalServerError)
	}
	if _, err := s.enqueuer.Enqueue(task); err != nil {
		return apperr.Wrap(err).WithMsg("Error scheduling refresh").WithCode(http.StatusInternalServerError)
	}
	return nil
}

func (s *PodcastService) Get(ctx context.Context, id int) (*models.Podcast, error) {
	podcast, err := s.store.FindPodcast(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading podcast")
	}
	if podcast == nil {
		return nil, apperr.NotFound("Podcast")
	}
	return podcast, nil
}

func (s *PodcastService) GetWithFavorite(ctx context.Context, id int, username string) (*PodcastDto, error) {
	podcast, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fav, err := s.store.FindFavorite(ctx, id, username)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading favorite")
	}
	withFav := models.PodcastWithFavorite{Podcast: *podcast}
	if fav != nil {
		withFav.Favored = &fav.Favored
	}
	dto := s.mapping.MapPodcastWithFavorite(withFav)
	return &dto, nil
}

func (s *PodcastService) List(ctx context.Context) ([]PodcastDto, error) {
	podcasts, err := s.store.GetPodcasts(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading podcasts")
	}
	out := make([]PodcastDto, 0, len(podcasts))
	for _, p := range podcasts {
		out = append(out, s.mapping.MapPodcast(p))
	}
	return out, nil
}

// Search lists podcasts with episodes; favoredOnly restricts the result to
// podcasts the user has a favorite entry for.
func (s *PodcastService) Search(ctx context.Context, search db.PodcastSearch, favoredOnly bool) ([]PodcastDto, error) {
	var (
		rows []models.PodcastWithFavorite
		err  error
	)
	if favoredOnly {
		rows, err = s.store.SearchPodcastsFavored(ctx, search)
	} else {
		rows, err = s.store.SearchPodcasts(ctx, search)
	}
	if err != nil {
		return nil, apperr.Storage(err, "Error searching podcasts")
	}
	return s.mapping.MapPodcasts(rows), nil
}

func (s *PodcastService) Favored(ctx context.Context, username string) ([]PodcastDto, error) {
	rows, err := s.store.GetFavoredPodcasts(ctx, username)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading favorites")
	}
	return s.mapping.MapPodcasts(rows), nil
}

func (s *PodcastService) SetFavor(ctx context.Context, id int, favor bool, username string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.UpdatePodcastFavor(ctx, id, favor, username); err != nil {
		return apperr.Storage(err, "Error updating favorite")
	}
	return nil
}

func (s *PodcastService) SetActive(ctx context.Context, id int, active bool) error {
	err := s.store.UpdatePodcastActive(ctx, id, active)
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("Podcast")
	}
	if err != nil {
		return apperr.Storage(err, "Error updating podcast")
	}
	return nil
}

// Episodes pages through a podcast's episodes, newest first.
func (s *PodcastService) Episodes(ctx context.Context, id int, lastDate *string) ([]PodcastEpisodeDto, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	episodes, err := s.store.GetEpisodesOfPodcast(ctx, id, lastDate)
	if err != nil {
		return nil, apperr.Storage(err, "Error loading episodes")
	}
	return s.mapping.MapEpisodes(episodes), nil
}

func (s *PodcastService) SearchEpisodes(ctx context.Context, term string) ([]PodcastEpisodeDto, error) {
	episodes, err := s.store.QueryEpisodes(ctx, term)
	if err != nil {
		return nil, apperr.Storage(err, "Error searching episodes")
	}
	return s.mapping.MapEpisodes(episodes), nil
}
