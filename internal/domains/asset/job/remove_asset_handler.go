package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/shared"
)

type assetDeleter interface {
	Delete(ctx context.Context, ref string) error
}

// RemoveAssetHandler retries an asset removal that failed in the API process
type RemoveAssetHandler struct {
	assets assetDeleter
}

func NewRemoveAssetHandler(assets assetDeleter) *RemoveAssetHandler {
	return &RemoveAssetHandler{assets: assets}
}

// ProcessTask trả error để asynq retry theo MaxRetry của task
func (h *RemoveAssetHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.RemoveAssetPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal RemoveAsset payload")
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	err := h.assets.Delete(ctx, payload.Ref)
	if errors.Is(err, asset.ErrInvalidRef) {
		log.Warn().Str("ref", payload.Ref).Msg("Dropping removal of invalid reference")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		log.Error().Err(err).Str("ref", payload.Ref).Msg("Asset removal retry failed")
		return fmt.Errorf("remove asset: %w", err)
	}

	log.Info().Str("ref", payload.Ref).Msg("Asset removed on retry")
	return nil
}
