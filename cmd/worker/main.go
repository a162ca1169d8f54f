package main

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"podfetch/internal/config"
	"podfetch/internal/db"
	"podfetch/internal/events"
	"podfetch/internal/feed"
	"podfetch/internal/logger"
	"podfetch/internal/worker"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

const (
	baseRetryDelay = time.Minute
	maxRetryDelay  = 6 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logger.New(cfg.LogLevel)

	store := db.EstablishConnection(cfg.Database.URL, cfg.Database.ConnectionOptions(), logger)
	defer store.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr})
	defer client.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			// Exponential backoff: 1min, 2min, 4min, ... capped at 6h.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := baseRetryDelay
				for i := 0; i < n; i++ {
					delay *= 2
					if delay > maxRetryDelay {
						delay = maxRetryDelay
						break
					}
				}
				logger.Warn().Err(err).Str("task", task.Type()).Int("attempt", n+1).Dur("retry_in", delay).Msg("task failed")
				return delay
			},
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(client, store, feed.NewFetcher(30*time.Second),
		events.NewRedisPublisher(redisClient), cfg.PodcastDir, logger)
	taskHandler.Register(mux)

	logger.Info().Str("commit", CommitSHA).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("could not run worker")
	}
}
