package models

import "strings"

// Favorite is a user's preference for a podcast.
type Favorite struct {
	Username  string `db:"username" json:"username"`
	PodcastID int    `db:"podcast_id" json:"podcastId"`
	Favored   bool   `db:"favored" json:"favored"`
}

// PodcastWithFavorite is a podcast row joined with the caller's favorite, if any.
type PodcastWithFavorite struct {
	Podcast
	Favored *bool `db:"favored"`
}

type OrderCriteria string

const (
	OrderAsc  OrderCriteria = "ASC"
	OrderDesc OrderCriteria = "DESC"
)

// ParseOrderCriteria defaults to ascending.
func ParseOrderCriteria(s string) OrderCriteria {
	if strings.EqualFold(s, string(OrderDesc)) {
		return OrderDesc
	}
	return OrderAsc
}

type OrderOption string

const (
	OrderByTitle         OrderOption = "TITLE"
	OrderByPublishedDate OrderOption = "PUBLISHEDDATE"
)

// ParseOrderOption defaults to ordering by publish date.
func ParseOrderOption(s string) OrderOption {
	if strings.EqualFold(s, string(OrderByTitle)) {
		return OrderByTitle
	}
	return OrderByPublishedDate
}
