package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product ánh xạ 1:1 với bảng products
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"` // asset ref hoặc /placeholder.svg
	FileURL     string          `json:"file_url"`  // "" = không có file tải về
	CreatorID   uuid.UUID       `json:"creator_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasFile reports whether the product carries a downloadable asset.
func (p *Product) HasFile() bool {
	return p.FileURL != ""
}

// OwnerSummary là creator được nhúng trong list views
type OwnerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// OwnerProfile là creator được nhúng trong detail view
type OwnerProfile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	StoreName    string    `json:"store_name"`
	ProfileImage string    `json:"profile_image"`
}

type ProductListItem struct {
	Product
	Creator OwnerSummary `json:"creator"`
}

type ProductDetail struct {
	Product
	Creator OwnerProfile `json:"creator"`
}

// ProductFilter - filter object cho repository.List
type ProductFilter struct {
	Query  string // ILIKE trên title + description
	Limit  int
	Offset int
}

type ProductPage struct {
	Items []ProductListItem `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
