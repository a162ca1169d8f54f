package feed

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/eduncan911/podcast"
	"podfetch/internal/models"
)

const (
	aggregateTitle       = "Podfetch"
	aggregateDescription = "Your local rss feed for your podcasts"
)

// BuildAggregate renders the feed of every downloaded episode.
func BuildAggregate(serverURL string, episodes []models.PodcastEpisode) (string, error) {
	link := serverURL + "rss"
	now := time.Now()

	p := podcast.New(aggregateTitle, link, aggregateDescription, &now, &now)
	p.Language = "en"

	if err := addItems(&p, serverURL, episodes); err != nil {
		return "", err
	}

	if len(episodes) > 0 {
		p.IOwner = &podcast.Author{Name: "Podfetch", Email: "dev@podfetch.com"}
		p.AddCategory("Technology", nil)
		p.IExplicit = "no"
		p.IAuthor = "Podfetch"
		p.INewFeedURL = link
		p.AddSummary(aggregateDescription)
	}
	return p.String(), nil
}

// BuildPodcast renders the feed of one podcast's downloaded episodes.
func BuildPodcast(serverURL string, pc models.Podcast, episodes []models.PodcastEpisode) (string, error) {
	link := fmt.Sprintf("%srss/%d", serverURL, pc.ID)
	description := deref(pc.Summary)
	if description == "" {
		description = pc.Name
	}

	p := podcast.New(pc.Name, link, description, nil, nil)
	p.Language = deref(pc.Language)
	if img := ImageURL(serverURL, pc); img != "" {
		p.IImage = &podcast.IImage{HREF: img}
	}

	if err := addItems(&p, serverURL, episodes); err != nil {
		return "", err
	}

	if len(episodes) > 0 {
		owner := &podcast.Author{}
		if pc.Author != nil {
			owner = &podcast.Author{Name: *pc.Author, Email: "local@local.com"}
		}
		p.IOwner = owner
		for _, keyword := range splitKeywords(deref(pc.Keywords)) {
			p.AddCategory(keyword, nil)
		}
		p.IExplicit = deref(pc.Explicit)
		p.IAuthor = deref(pc.Author)
		p.INewFeedURL = link
		if pc.Summary != nil {
			p.AddSummary(*pc.Summary)
		}
	}
	return p.String(), nil
}

// ImageURL prefers the locally cached image and falls back to the
// original remote one.
func ImageURL(serverURL string, pc models.Podcast) string {
	if pc.ImageURL != "" {
		return Absolute(serverURL, pc.ImageURL)
	}
	return Absolute(serverURL, pc.OriginalImageURL)
}

// Absolute prefixes relative paths with the server URL.
func Absolute(serverURL, u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return serverURL + strings.TrimPrefix(u, "/")
}

func addItems(p *podcast.Podcast, serverURL string, episodes []models.PodcastEpisode) error {
	for _, e := range episodes {
		title := e.Name
		if title == "" {
			title = e.EpisodeID
		}
		description := e.Description
		if description == "" {
			description = title
		}

		item := podcast.Item{
			GUID:        e.EpisodeID,
			Title:       title,
			Description: description,
			PubDate:     parseRecordingDate(e.DateOfRecording),
		}
		fileURL := EnclosureURL(serverURL, e)
		if fileURL == "" {
			continue
		}
		item.AddEnclosure(fileURL, EnclosureType(fileURL), int64(e.TotalTime))
		item.AddDuration(int64(e.TotalTime))
		if img := Absolute(serverURL, e.LocalImageURL); img != "" {
			item.AddImage(img)
		}

		if _, err := p.AddItem(item); err != nil {
			return fmt.Errorf("add episode %q: %w", e.EpisodeID, err)
		}
	}
	return nil
}

// EnclosureURL points at the downloaded file and falls back to the remote
// one while no local copy is recorded.
func EnclosureURL(serverURL string, e models.PodcastEpisode) string {
	if e.LocalURL != "" {
		return Absolute(serverURL, e.LocalURL)
	}
	return e.URL
}

// EnclosureType maps a file suffix to its enclosure MIME type.
func EnclosureType(fileURL string) podcast.EnclosureType {
	if i := strings.IndexAny(fileURL, "?#"); i >= 0 {
		fileURL = fileURL[:i]
	}
	switch strings.ToLower(path.Ext(fileURL)) {
	case ".m4a":
		return podcast.M4A
	case ".mp4":
		return podcast.MP4
	case ".m4v":
		return podcast.M4V
	case ".mov":
		return podcast.MOV
	default:
		return podcast.MP3
	}
}

var recordingLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

func parseRecordingDate(s string) *time.Time {
	for _, layout := range recordingLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.Unix(secs, 0).UTC()
		return &t
	}
	return nil
}

func splitKeywords(keywords string) []string {
	var out []string
	for _, k := range strings.Split(keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
