package model

import (
	"errors"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var (
	minPrice = decimal.RequireFromString("0.01")
	// NUMERIC(12,2)
	maxPrice = decimal.RequireFromString("9999999999.99")
)

// MaxPage: page * 100 (limit tối đa) vẫn nằm trong int32
const MaxPage = 20_000_000

// Upload là một file part của multipart request
type Upload struct {
	Filename string
	Content  io.Reader
}

// priceRule: chuỗi decimal, >= 0.01, tối đa 2 chữ số thập phân
var priceRule = validation.By(func(value interface{}) error {
	v, _ := validation.Indirect(value)
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	_, err := ParsePrice(s)
	return err
})

// ParsePrice parses a user-supplied price string.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, errors.New("price must be a number")
	}
	if d.LessThan(minPrice) {
		return decimal.Decimal{}, errors.New("price must be at least 0.01")
	}
	if d.GreaterThan(maxPrice) {
		return decimal.Decimal{}, errors.New("price must be at most 9999999999.99")
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Decimal{}, errors.New("price must have at most 2 decimal places")
	}
	return d, nil
}

// ========================================
// CREATE
// ========================================

// json tags đặt tên key cho validation.Errors
type CreateProductRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       string  `json:"price"`
	Image       *Upload `json:"-"` // nil -> placeholder
	File        *Upload `json:"-"` // nil -> no file
}

func (r CreateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(3, 200).Error("title must be 3-200 characters"),
		),
		validation.Field(&r.Description,
			validation.Required.Error("description is required"),
			validation.RuneLength(10, 10000).Error("description must be at least 10 characters"),
		),
		validation.Field(&r.Price,
			validation.Required.Error("price is required"),
			priceRule,
		),
	)
}

func (r *CreateProductRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Price = strings.TrimSpace(r.Price)
}

// ========================================
// UPDATE (partial)
// ========================================

// UpdateProductRequest: nil = giữ nguyên giá trị hiện tại
type UpdateProductRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Image       *Upload `json:"-"`
	File        *Upload `json:"-"`
}

func (r UpdateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.When(r.Title != nil,
				validation.Required.Error("title cannot be empty"),
				validation.RuneLength(3, 200).Error("title must be 3-200 characters"),
			),
		),
		validation.Field(&r.Description,
			validation.When(r.Description != nil,
				validation.Required.Error("description cannot be empty"),
				validation.RuneLength(10, 10000).Error("description must be at least 10 characters"),
			),
		),
		validation.Field(&r.Price,
			validation.When(r.Price != nil,
				validation.Required.Error("price cannot be empty"),
				priceRule,
			),
		),
	)
}

func (r *UpdateProductRequest) Normalize() {
	for _, f := range []*string{r.Title, r.Description, r.Price} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// IsEmpty: không có field nào được gửi lên
func (r UpdateProductRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Price == nil && r.Image == nil && r.File == nil
}

// ========================================
// LIST
// ========================================

type ListProductsRequest struct {
	Query string `json:"q" form:"q"`
	Page  int    `json:"page" form:"page"`
	Limit int    `json:"limit" form:"limit"`
}

func (r ListProductsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.RuneLength(0, 200)),
		validation.Field(&r.Page, validation.Min(0), validation.Max(MaxPage)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100)),
	)
}

// Download là file asset được stream cho client
type Download struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}
