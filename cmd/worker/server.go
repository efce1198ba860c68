package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/container"
)

// asynqServer wraps asynq.Server with logging
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates the server and starts processing (non-blocking)
func setupAsynqServer(c *container.Container, cfg *workerConfig, handlers *HandlerRegistry) (*asynqServer, error) {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		c.RedisOpt,
		asynq.Config{
			Queues: map[string]int{
				shared.QueueAsset:   10,
				shared.QueueDefault: 5,
			},
			Concurrency: cfg.Concurrency,
			// Shutdown chờ task đang chạy tối đa 30s
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.Error().
					Err(err).
					Str("type", task.Type()).
					Int("retried", retried).
					Int("max_retry", maxRetry).
					Msg("[Asynq] ❌ Task failed")
			}),
		},
	)

	log.Info().Msg("[Worker] Starting...")
	if err := srv.Start(mux); err != nil {
		return nil, err
	}

	return &asynqServer{Server: srv}, nil
}

func (s *asynqServer) Shutdown() {
	log.Info().Msg("[Worker] Shutting down...")
	s.Server.Shutdown()
	log.Info().Msg("[Worker] ✓ Gracefully stopped")
}
