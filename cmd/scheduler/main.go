package main

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"podfetch/internal/config"
	"podfetch/internal/logger"
	"podfetch/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logger.New(cfg.LogLevel)

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr},
		&asynq.SchedulerOpts{},
	)

	refreshAll, err := tasks.NewRefreshAllPodcastsTask()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create refresh task")
	}
	if _, err := scheduler.Register("@every 1h", refreshAll); err != nil {
		logger.Fatal().Err(err).Msg("could not register refresh task")
	}

	cleanup, err := tasks.NewCleanupEpisodesTask()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create cleanup task")
	}
	if _, err := scheduler.Register("@every 24h", cleanup); err != nil {
		logger.Fatal().Err(err).Msg("could not register cleanup task")
	}

	logger.Info().Str("commit", CommitSHA).Msg("scheduler starting")
	if err := scheduler.Run(); err != nil {
		logger.Fatal().Err(err).Msg("could not run scheduler")
	}
}
