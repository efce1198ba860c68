package main

import (
	"github.com/hibiken/asynq"

	assetJob "marketplace-backend/internal/domains/asset/job"
	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	removeAsset  *assetJob.RemoveAssetHandler
	sweepOrphans *assetJob.SweepOrphansHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		removeAsset: assetJob.NewRemoveAssetHandler(c.Assets),
		// Mọi bảng có cột asset ref phải nằm trong danh sách này
		sweepOrphans: assetJob.NewSweepOrphansHandler(c.Assets, c.ProductRepo, c.UserRepo),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeRemoveAsset, h.removeAsset.ProcessTask)
	mux.HandleFunc(shared.TypeSweepOrphanAssets, h.sweepOrphans.ProcessTask)
}
