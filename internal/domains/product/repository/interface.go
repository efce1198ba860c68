package repository

import (
	"context"

	"github.com/google/uuid"

	"marketplace-backend/internal/domains/product/model"
)

// RepositoryInterface defines data access methods for products
type RepositoryInterface interface {
	// Basic CRUD
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Read views (join users)
	FindDetailByID(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error)
	List(ctx context.Context, filter model.ProductFilter) ([]model.ProductListItem, int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.ProductListItem, error)

	// Tất cả image_url + file_url, dùng cho orphan sweep
	ListAssetRefs(ctx context.Context) ([]string, error)

	// HasImageRef: ref có phải image_url của product nào không.
	// file_url không tính, file chỉ tải qua /products/:id/download
	HasImageRef(ctx context.Context, ref string) (bool, error)
}
