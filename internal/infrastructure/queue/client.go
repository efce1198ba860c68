package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"marketplace-backend/internal/shared"
)

// Client wraps asynq.Client for the tasks the API process produces.
type Client struct {
	client   *asynq.Client
	maxRetry int
}

func NewClient(opt asynq.RedisClientOpt, maxRetry int) *Client {
	return &Client{
		client:   asynq.NewClient(opt),
		maxRetry: maxRetry,
	}
}

// EnqueueAssetRemoval đẩy task retry xóa asset vào queue "asset"
func (c *Client) EnqueueAssetRemoval(ctx context.Context, ref, reason string) error {
	payload, err := json.Marshal(shared.RemoveAssetPayload{Ref: ref, Reason: reason})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeRemoveAsset, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueAsset),
		asynq.MaxRetry(c.maxRetry),
		asynq.ProcessIn(30*time.Second),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", shared.TypeRemoveAsset, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
