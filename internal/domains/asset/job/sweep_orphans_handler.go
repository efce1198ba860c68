package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/shared"
)

// RefSource lists every asset reference a store still holds.
type RefSource interface {
	ListAssetRefs(ctx context.Context) ([]string, error)
}

type orphanSweeper interface {
	SweepOrphans(ctx context.Context, referenced map[string]struct{}, cutoff time.Time) (int, error)
}

// SweepOrphansHandler xóa blobs không còn record nào tham chiếu
// (vd: process chết giữa lúc store asset và persist record)
type SweepOrphansHandler struct {
	assets  orphanSweeper
	sources []RefSource
	now     func() time.Time
}

func NewSweepOrphansHandler(assets orphanSweeper, sources ...RefSource) *SweepOrphansHandler {
	return &SweepOrphansHandler{
		assets:  assets,
		sources: sources,
		now:     time.Now,
	}
}

func (h *SweepOrphansHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.SweepOrphansPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal SweepOrphans payload")
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	referenced := make(map[string]struct{})
	for _, src := range h.sources {
		refs, err := src.ListAssetRefs(ctx)
		if err != nil {
			// Sweeping with a partial set would delete live assets
			return fmt.Errorf("list asset refs: %w", err)
		}
		for _, ref := range refs {
			referenced[ref] = struct{}{}
		}
	}

	cutoff := h.now().Add(-time.Duration(payload.GraceSeconds) * time.Second)
	removed, err := h.assets.SweepOrphans(ctx, referenced, cutoff)
	if err != nil {
		log.Error().Err(err).Int("removed", removed).Msg("Orphan sweep failed")
		return fmt.Errorf("sweep orphans: %w", err)
	}

	log.Info().
		Int("removed", removed).
		Int("referenced", len(referenced)).
		Time("cutoff", cutoff).
		Msg("Orphan sweep completed")
	return nil
}
