package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/config"
)

// workerConfig: phần config chỉ worker dùng, còn lại lấy từ container
type workerConfig struct {
	HealthAddr  string
	Concurrency int
	Storage     config.StorageConfig
}

func loadConfig(app *config.Config) *workerConfig {
	cfg := &workerConfig{
		HealthAddr:  getEnv("WORKER_HEALTH_ADDR", ":9999"),
		Concurrency: app.Queue.Concurrency,
		Storage:     app.Storage,
	}

	log.Info().
		Str("redis", app.Redis.Host).
		Str("health_addr", cfg.HealthAddr).
		Int("concurrency", cfg.Concurrency).
		Str("sweep_cron", cfg.Storage.SweepCron).
		Msg("[Config] Worker configuration loaded")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
