// Package events fans server-side happenings out to websocket clients.
// Workers publish through Redis; the server relays to its connected clients.
package events

import (
	"context"
	"encoding/json"

	"podfetch/internal/models"
)

// Channel is the Redis pub/sub channel carrying events.
const Channel = "podfetch:events"

// Message types.
const (
	TypeNotification    = "Notification"
	TypeEpisodesAdded   = "AddPodcastEpisodes"
	TypePodcastAdded    = "AddPodcast"
	TypeEpisodesRemoved = "DeletePodcastEpisodes"
)

type Message struct {
	Type            string                  `json:"type"`
	Message         string                  `json:"message"`
	Podcast         *models.Podcast         `json:"podcast,omitempty"`
	PodcastEpisodes []models.PodcastEpisode `json:"podcast_episodes,omitempty"`
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func Decode(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}

// Publisher delivers a message to every listening client.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
