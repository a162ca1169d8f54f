package models

// Podcast is a subscribed feed.
type Podcast struct {
	ID               int     `db:"id" json:"id"`
	Name             string  `db:"name" json:"name"`
	DirectoryID      string  `db:"directory_id" json:"directoryId"`
	DirectoryName    string  `db:"directory_name" json:"directoryName"`
	RSSFeed          string  `db:"rssfeed" json:"rssfeed"`
	ImageURL         string  `db:"image_url" json:"imageUrl"`
	OriginalImageURL string  `db:"original_image_url" json:"originalImageUrl"`
	Summary          *string `db:"summary" json:"summary"`
	Language         *string `db:"language" json:"language"`
	Explicit         *string `db:"explicit" json:"explicit"`
	Keywords         *string `db:"keywords" json:"keywords"`
	LastBuildDate    *string `db:"last_build_date" json:"lastBuildDate"`
	Author           *string `db:"author" json:"author"`
	Active           bool    `db:"active" json:"active"`
}

// IsExplicit interprets the free-form explicit flag taken from the feed.
func (p Podcast) IsExplicit() bool {
	if p.Explicit == nil {
		return false
	}
	switch *p.Explicit {
	case "yes", "true", "explicit":
		return true
	}
	return false
}

// PodcastMetadata is the channel data refreshed from the remote feed.
type PodcastMetadata struct {
	Summary       string
	Language      string
	Explicit      string
	Keywords      string
	LastBuildDate string
	Author        string
}
