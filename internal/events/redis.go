package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisPublisher publishes events for the server process to relay.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Relay forwards events published on Redis to the hub until ctx ends.
func Relay(ctx context.Context, client *redis.Client, hub *Hub, logger zerolog.Logger) error {
	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	logger.Info().Str("channel", Channel).Msg("relaying events to websocket clients")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if err := hub.Broadcast(ctx, []byte(m.Payload)); err != nil {
				return nil
			}
		}
	}
}
