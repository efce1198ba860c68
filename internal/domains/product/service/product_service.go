package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/domains/product/model"
	"marketplace-backend/internal/domains/product/repository"
	"marketplace-backend/internal/shared/authz"
	"marketplace-backend/internal/shared/utils"
	"marketplace-backend/pkg/cache"
)

const (
	cacheTTL        = 60 * time.Second
	cachePattern    = "products:*"
	detailKeyPrefix = "products:detail:"
	listKeyPrefix   = "products:list:"
	ownerKeyPrefix  = "products:owner:"

	maxPageSize = 100
)

type ProductService struct {
	repo   repository.RepositoryInterface
	assets *asset.Manager
	cache  cache.Cache
}

func NewProductService(repo repository.RepositoryInterface, assets *asset.Manager, c cache.Cache) ServiceInterface {
	return &ProductService{
		repo:   repo,
		assets: assets,
		cache:  c,
	}
}

// ========================================
// MUTATIONS
// ========================================

// Create: validate -> stage image/file -> persist -> commit.
// Persist lỗi thì deferred Release xóa mọi asset đã stage.
func (s *ProductService) Create(ctx context.Context, callerID uuid.UUID, req model.CreateProductRequest) (*model.Product, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	price, err := model.ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	staging := s.assets.Stage()
	defer staging.Release(ctx)

	product := &model.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		ImageURL:    asset.PlaceholderRef,
		CreatorID:   callerID,
	}
	if req.Image != nil {
		if product.ImageURL, err = staging.StoreImage(ctx, req.Image.Content, req.Image.Filename); err != nil {
			return nil, err
		}
	}
	if req.File != nil {
		if product.FileURL, err = staging.Store(ctx, req.File.Content, req.File.Filename); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	staging.Commit()

	s.invalidate(ctx)
	log.Info().
		Str("product_id", product.ID.String()).
		Str("creator_id", callerID.String()).
		Msg("Product created")
	return product, nil
}

// Update: asset cũ chỉ bị xóa sau khi record mới đã persist
func (s *ProductService) Update(ctx context.Context, id, callerID uuid.UUID, req model.UpdateProductRequest) (*model.Product, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.AssertOwner(current.CreatorID, callerID); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	staging := s.assets.Stage()
	defer staging.Release(ctx)

	updated := *current
	if req.Image != nil {
		if updated.ImageURL, err = staging.StoreImage(ctx, req.Image.Content, req.Image.Filename); err != nil {
			return nil, err
		}
	}
	if req.File != nil {
		if updated.FileURL, err = staging.Store(ctx, req.File.Content, req.File.Filename); err != nil {
			return nil, err
		}
	}
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Price != nil {
		if updated.Price, err = model.ParsePrice(*req.Price); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	staging.Commit()

	if updated.ImageURL != current.ImageURL {
		s.assets.Remove(ctx, current.ImageURL)
	}
	if updated.FileURL != current.FileURL {
		s.assets.Remove(ctx, current.FileURL)
	}

	s.invalidate(ctx)
	return &updated, nil
}

// Delete: xóa record trước, asset xóa best-effort sau
func (s *ProductService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.AssertOwner(current.CreatorID, callerID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.assets.Remove(ctx, current.ImageURL)
	s.assets.Remove(ctx, current.FileURL)

	s.invalidate(ctx)
	log.Info().
		Str("product_id", id.String()).
		Str("creator_id", callerID.String()).
		Msg("Product deleted")
	return nil
}

// ========================================
// READS (cache-aside)
// ========================================

func (s *ProductService) List(ctx context.Context, req model.ListProductsRequest) (*model.ProductPage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(req.Query)
	page, limit, offset := utils.Paginate(req.Page, req.Limit, maxPageSize)

	key := fmt.Sprintf("%s%d:%d:%s", listKeyPrefix, page, limit, strings.ToLower(query))
	var cached model.ProductPage
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	items, total, err := s.repo.List(ctx, model.ProductFilter{Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	result := &model.ProductPage{Items: items, Total: total, Page: page, Limit: limit}
	s.cacheSet(ctx, key, result)
	return result, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error) {
	key := detailKeyPrefix + id.String()
	var cached model.ProductDetail
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, detail)
	return detail, nil
}

func (s *ProductService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.ProductListItem, error) {
	key := ownerKeyPrefix + ownerID.String()
	var cached []model.ProductListItem
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, items)
	return items, nil
}

func (s *ProductService) Download(ctx context.Context, id uuid.UUID) (*model.Download, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.HasFile() {
		return nil, model.ErrNoFile
	}

	body, err := s.assets.Open(ctx, product.FileURL)
	if err != nil {
		return nil, err
	}

	return &model.Download{
		Filename:    downloadName(product.FileURL),
		ContentType: asset.ContentType(product.FileURL),
		Body:        body,
	}, nil
}

// downloadName bỏ prefix "<uuid>-" của stored name
func downloadName(ref string) string {
	name, err := asset.NameFromRef(ref)
	if err != nil {
		return "download"
	}
	if len(name) > 37 && name[36] == '-' {
		if _, err := uuid.Parse(name[:36]); err == nil {
			return name[37:]
		}
	}
	return name
}

// ========================================
// CACHE HELPERS
// ========================================

// Cache lỗi không làm fail request, chỉ log
func (s *ProductService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Product cache read failed")
		return false
	}
	return found
}

func (s *ProductService) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Product cache write failed")
	}
}

func (s *ProductService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, cachePattern); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate product cache")
	}
}
