package feed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
	"podfetch/internal/models"
)

// ParsedPodcast is a remote feed reduced to what is stored.
type ParsedPodcast struct {
	Title    string
	ImageURL string
	Metadata models.PodcastMetadata
	Episodes []ParsedEpisode
}

type ParsedEpisode struct {
	GUID        string
	Title       string
	Description string
	URL         string
	ImageURL    string
	Published   time.Time
	Duration    int
}

// Fetcher downloads and parses podcast feeds.
type Fetcher struct {
	http   *resty.Client
	parser *gofeed.Parser
}

func NewFetcher(timeout time.Duration) *Fetcher {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(2 * time.Second)
	client.SetHeader("User-Agent", "podfetch")

	return &Fetcher{http: client, parser: gofeed.NewParser()}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*ParsedPodcast, error) {
	resp, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: unexpected status %d", url, resp.StatusCode())
	}
	return f.Parse(resp.String())
}

// Parse converts a feed document.
func (f *Fetcher) Parse(body string) (*ParsedPodcast, error) {
	parsed, err := f.parser.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	out := &ParsedPodcast{
		Title: parsed.Title,
		Metadata: models.PodcastMetadata{
			Summary:       parsed.Description,
			Language:      parsed.Language,
			LastBuildDate: parsed.Updated,
		},
	}
	if parsed.Image != nil {
		out.ImageURL = parsed.Image.URL
	}
	if it := parsed.ITunesExt; it != nil {
		out.Metadata.Author = it.Author
		out.Metadata.Explicit = it.Explicit
		out.Metadata.Keywords = it.Keywords
		if it.Summary != "" {
			out.Metadata.Summary = it.Summary
		}
		if out.ImageURL == "" {
			out.ImageURL = it.Image
		}
	}
	if out.Metadata.Author == "" && len(parsed.Authors) > 0 {
		out.Metadata.Author = parsed.Authors[0].Name
	}

	for _, item := range parsed.Items {
		enclosure := firstAudioEnclosure(item)
		if enclosure == "" {
			continue
		}
		ep := ParsedEpisode{
			GUID:        item.GUID,
			Title:       item.Title,
			Description: item.Description,
			URL:         enclosure,
			ImageURL:    out.ImageURL,
			Published:   time.Now().UTC(),
		}
		if ep.GUID == "" {
			ep.GUID = enclosure
		}
		if item.PublishedParsed != nil {
			ep.Published = item.PublishedParsed.UTC()
		}
		if item.Image != nil && item.Image.URL != "" {
			ep.ImageURL = item.Image.URL
		}
		if it := item.ITunesExt; it != nil {
			ep.Duration = ParseDuration(it.Duration)
			if it.Image != "" {
				ep.ImageURL = it.Image
			}
		}
		out.Episodes = append(out.Episodes, ep)
	}
	return out, nil
}

func firstAudioEnclosure(item *gofeed.Item) string {
	for _, e := range item.Enclosures {
		if e.URL != "" {
			return e.URL
		}
	}
	return ""
}

// ParseDuration reads itunes:duration values: seconds, MM:SS or HH:MM:SS.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// RefreshStore is the storage a Refresher writes to.
type RefreshStore interface {
	FindEpisodeByEpisodeID(ctx context.Context, podcastID int, episodeID string) (*models.PodcastEpisode, error)
	AddEpisode(ctx context.Context, e models.PodcastEpisode) (int64, error)
	UpdatePodcastMetadata(ctx context.Context, id int, meta models.PodcastMetadata) error
}

// FeedSource yields the parsed feed of a URL.
type FeedSource interface {
	Fetch(ctx context.Context, url string) (*ParsedPodcast, error)
}

// Refresher brings a stored podcast up to date with its remote feed.
type Refresher struct {
	store  RefreshStore
	source FeedSource
}

func NewRefresher(store RefreshStore, source FeedSource) *Refresher {
	return &Refresher{store: store, source: source}
}

// Refresh updates the podcast's metadata and stores episodes not seen
// before. It returns the newly stored episodes.
func (r *Refresher) Refresh(ctx context.Context, podcast models.Podcast) ([]models.PodcastEpisode, error) {
	parsed, err := r.source.Fetch(ctx, podcast.RSSFeed)
	if err != nil {
		return nil, err
	}

	if err := r.store.UpdatePodcastMetadata(ctx, podcast.ID, parsed.Metadata); err != nil {
		return nil, err
	}

	var added []models.PodcastEpisode
	for _, ep := range parsed.Episodes {
		existing, err := r.store.FindEpisodeByEpisodeID(ctx, podcast.ID, ep.GUID)
		if err != nil {
			return added, err
		}
		if existing != nil {
			continue
		}

		episode := models.PodcastEpisode{
			PodcastID:       podcast.ID,
			EpisodeID:       ep.GUID,
			Name:            ep.Title,
			URL:             ep.URL,
			DateOfRecording: ep.Published.Format(time.RFC3339),
			ImageURL:        ep.ImageURL,
			TotalTime:       ep.Duration,
			Description:     ep.Description,
			Status:          models.EpisodeNotDownloaded,
			GUID:            ep.GUID,
		}
		id, err := r.store.AddEpisode(ctx, episode)
		if err != nil {
			return added, err
		}
		episode.ID = int(id)
		added = append(added, episode)
	}

	log.Info().Int("podcast_id", podcast.ID).Int("new_episodes", len(added)).Msg("podcast refreshed")
	return added, nil
}
