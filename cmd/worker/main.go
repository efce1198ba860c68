package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"marketplace-backend/pkg/container"
	"marketplace-backend/pkg/logger"
)

func main() {
	envErr := godotenv.Load()
	logger.Init(getEnv("APP_ENV", "development"), getEnv("LOG_LEVEL", "info"))
	if envErr != nil {
		logger.Warn("No .env file found, using system environment variables", nil)
	}

	c, err := container.NewWorkerContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("[Container] Failed to initialize")
	}
	defer c.Cleanup()

	cfg := loadConfig(c.Config)

	handlers := initializeHandlers(c)

	srv, err := setupAsynqServer(c, cfg, handlers)
	if err != nil {
		log.Fatal().Err(err).Msg("[Worker] Failed to start")
	}

	scheduler, err := setupScheduler(c, cfg)
	if err != nil {
		srv.Shutdown()
		log.Fatal().Err(err).Msg("[Scheduler] Failed to start")
	}

	health, err := startServices(c, cfg)
	if err != nil {
		scheduler.Shutdown()
		srv.Shutdown()
		log.Fatal().Err(err).Msg("[Startup] Health check failed")
	}

	waitForShutdown(srv, scheduler, health)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler, health *healthServer) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("[Shutdown] Gracefully stopping...")
	health.Shutdown()
	scheduler.Shutdown()
	srv.Shutdown()
	log.Info().Msg("[Shutdown] ✓ Stopped")
}
