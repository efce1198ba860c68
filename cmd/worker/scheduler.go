package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/infrastructure/queue"
	"marketplace-backend/pkg/container"
)

// asynqScheduler wraps queue.Scheduler with logging
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers cron jobs and starts the scheduler
func setupScheduler(c *container.Container, cfg *workerConfig) (*asynqScheduler, error) {
	scheduler := queue.NewScheduler(c.RedisOpt, cfg.Storage)

	if err := scheduler.RegisterJobs(); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	log.Info().Msg("[Scheduler] Starting...")
	if err := scheduler.Start(); err != nil {
		return nil, err
	}

	return &asynqScheduler{Scheduler: scheduler}, nil
}

func (s *asynqScheduler) Shutdown() {
	log.Info().Msg("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Info().Msg("[Scheduler] ✓ Stopped")
}
