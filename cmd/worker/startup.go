package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/rs/zerolog/log"

	"marketplace-backend/pkg/container"
)

// HealthChecker performs startup and liveness checks
type HealthChecker struct {
	redisClient *redis.Client
	c           *container.Container
}

type healthServer struct {
	srv     *http.Server
	checker *HealthChecker
}

// startServices chạy health checks rồi mở health endpoint
func startServices(c *container.Container, cfg *workerConfig) (*healthServer, error) {
	log.Info().Msg("============================================")
	log.Info().Msg("🚀 Marketplace Worker Starting...")
	log.Info().Msg("============================================")

	checker := &HealthChecker{
		redisClient: redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
			MaintNotificationsConfig: &maintnotifications.Config{
				Mode: maintnotifications.ModeDisabled,
			},
		}),
		c: c,
	}

	if err := checker.checkAll(context.Background()); err != nil {
		_ = checker.redisClient.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.healthHandler)
	mux.HandleFunc("/ready", checker.readyHandler)

	hs := &healthServer{
		srv:     &http.Server{Addr: cfg.HealthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		checker: checker,
	}
	go func() {
		log.Info().Str("addr", cfg.HealthAddr).Msg("[Health] Starting health check server")
		if err := hs.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("[Health] Failed to start")
		}
	}()

	return hs, nil
}

func (h *healthServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.srv.Shutdown(ctx)
	_ = h.checker.redisClient.Close()
}

// checkAll runs all health checks
func (h *HealthChecker) checkAll(ctx context.Context) error {
	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"Redis Connection", h.checkRedis},
		{"Database Connection", h.checkDatabase},
	}

	for _, check := range checks {
		log.Info().Msgf("⏳ Checking %s...", check.name)
		if err := check.fn(ctx); err != nil {
			log.Error().Err(err).Msgf("❌ %s", check.name)
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Info().Msgf("✓ %s: OK", check.name)
	}

	return nil
}

func (h *HealthChecker) checkRedis(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.redisClient.Ping(ctx).Err()
}

// checkDatabase: sweep cần đọc refs từ Postgres
func (h *HealthChecker) checkDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.c.DB.HealthCheck(ctx)
}

// healthHandler handles /health (liveness)
func (h *HealthChecker) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP", "service": "marketplace-worker"})
}

// readyHandler handles /ready (Kubernetes readiness probe)
func (h *HealthChecker) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.checkAll(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_READY", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "READY"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
