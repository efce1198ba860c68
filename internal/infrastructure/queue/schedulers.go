package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	storage   config.StorageConfig
}

func NewScheduler(opt asynq.RedisClientOpt, storage config.StorageConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		opt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		storage:   storage,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerSweepOrphanAssetsJob()
}

// ================================================
// Sweep orphan assets (STORAGE_SWEEP_CRON, default hourly)
// ================================================
func (s *Scheduler) registerSweepOrphanAssetsJob() error {
	payload, err := json.Marshal(shared.SweepOrphansPayload{
		GraceSeconds: int64(s.storage.SweepGrace / time.Second),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeSweepOrphanAssets, payload)

	_, err = s.scheduler.Register(
		s.storage.SweepCron,
		task,
		asynq.Queue(shared.QueueAsset),
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
		asynq.Unique(time.Hour),
	)
	if err != nil {
		logger.Error("Failed to register SweepOrphanAssets job", err)
		return err
	}

	logger.Info("Registered SweepOrphanAssets", map[string]interface{}{
		"cron":  s.storage.SweepCron,
		"grace": s.storage.SweepGrace.String(),
	})
	return nil
}

// Start không block, dừng bằng Shutdown
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
