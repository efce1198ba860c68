package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"marketplace-backend/internal/domains/product/model"
)

// ServiceInterface defines business logic for products
type ServiceInterface interface {
	// Mutations: callerID lấy từ token, chỉ owner được sửa/xóa
	Create(ctx context.Context, callerID uuid.UUID, req model.CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, id, callerID uuid.UUID, req model.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error

	// Reads
	List(ctx context.Context, req model.ListProductsRequest) (*model.ProductPage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.ProductListItem, error)

	// Download mở file asset, caller phải Close() Body
	Download(ctx context.Context, id uuid.UUID) (*model.Download, error)
	ExportByOwner(ctx context.Context, ownerID uuid.UUID) (*excelize.File, error)
}
