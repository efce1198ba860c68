package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/shared/response"
)

// ImageRefSource cho biết một ref có đang được dùng làm ảnh public
// (product preview, profile image) hay không.
type ImageRefSource interface {
	HasImageRef(ctx context.Context, ref string) (bool, error)
}

// AssetHandler serves public images under /uploads/:name.
// Downloadable files are only reachable through /products/:id/download.
type AssetHandler struct {
	assets  *asset.Manager
	sources []ImageRefSource
}

func NewAssetHandler(assets *asset.Manager, sources ...ImageRefSource) *AssetHandler {
	return &AssetHandler{assets: assets, sources: sources}
}

// Serve xử lý GET /uploads/:name
func (h *AssetHandler) Serve(c *gin.Context) {
	ctx := c.Request.Context()
	ref := asset.RefPrefix + c.Param("name")

	public, err := h.isPublicImage(ctx, ref)
	if err != nil {
		log.Error().Err(err).Str("ref", ref).Msg("Failed to check asset ref")
		response.InternalServerError(c, "Internal server error")
		return
	}
	if !public {
		response.NotFound(c, "asset not found")
		return
	}

	body, err := h.assets.Open(ctx, ref)
	if err != nil {
		if errors.Is(err, asset.ErrAssetNotFound) {
			response.NotFound(c, "asset not found")
			return
		}
		log.Error().Err(err).Str("ref", ref).Msg("Failed to open asset")
		response.InternalServerError(c, "Internal server error")
		return
	}
	defer body.Close()

	// Tên blob là duy nhất và không bao giờ bị ghi đè
	c.DataFromReader(http.StatusOK, -1, asset.ContentType(ref), body, map[string]string{
		"Cache-Control":          "public, max-age=31536000, immutable",
		"X-Content-Type-Options": "nosniff",
	})
}

func (h *AssetHandler) isPublicImage(ctx context.Context, ref string) (bool, error) {
	if _, err := asset.NameFromRef(ref); err != nil {
		return false, nil
	}
	for _, src := range h.sources {
		ok, err := src.HasImageRef(ctx, ref)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
