package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/domains/product/model"
	"marketplace-backend/internal/domains/product/service"
	"marketplace-backend/internal/shared/authz"
	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/internal/shared/response"
)

const (
	imageField = "image"
	fileField  = "file"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ProductHandler struct {
	service service.ServiceInterface
	// Giới hạn body multipart: ảnh + file + 1MB cho text fields
	maxBodyBytes int64
}

func NewProductHandler(service service.ServiceInterface, maxImageBytes, maxFileBytes int64) *ProductHandler {
	return &ProductHandler{
		service:      service,
		maxBodyBytes: maxImageBytes + maxFileBytes + 1<<20,
	}
}

// ========================================
// PUBLIC READS
// ========================================

// ListProducts xử lý GET /products?q=&page=&limit=
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req model.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, page.Items, &response.Meta{
		Page:  page.Page,
		Limit: page.Limit,
		Total: page.Total,
	})
}

// GetProduct xử lý GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	detail, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// ListUserProducts xử lý GET /products/user/:userId
func (h *ProductHandler) ListUserProducts(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	h.listByOwner(c, ownerID)
}

// ListMyProducts xử lý GET /products/user/me
func (h *ProductHandler) ListMyProducts(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		h.handleError(c, authz.ErrUnauthenticated)
		return
	}
	h.listByOwner(c, callerID)
}

func (h *ProductHandler) listByOwner(c *gin.Context, ownerID uuid.UUID) {
	items, err := h.service.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// ExportMyProducts xử lý GET /products/user/me/export (xlsx)
func (h *ProductHandler) ExportMyProducts(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		h.handleError(c, authz.ErrUnauthenticated)
		return
	}

	f, err := h.service.ExportByOwner(c.Request.Context(), callerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("products_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Error().Err(err).Str("user_id", callerID.String()).Msg("Failed to write product export")
	}
}

// ========================================
// MUTATIONS (bearer)
// ========================================

// CreateProduct xử lý POST /products (multipart)
// Fields: title, description, price, image, file
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		h.handleError(c, authz.ErrUnauthenticated)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	image, file, closeAll, err := openUploads(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer closeAll()

	req := model.CreateProductRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
		Image:       image,
		File:        file,
	}

	product, err := h.service.Create(c.Request.Context(), callerID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, product)
}

// UpdateProduct xử lý PUT /products/:id (multipart, partial)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		h.handleError(c, authz.ErrUnauthenticated)
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	image, file, closeAll, err := openUploads(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer closeAll()

	// Field có mặt trong form = cập nhật
	req := model.UpdateProductRequest{Image: image, File: file}
	if v, present := c.GetPostForm("title"); present {
		req.Title = &v
	}
	if v, present := c.GetPostForm("description"); present {
		req.Description = &v
	}
	if v, present := c.GetPostForm("price"); present {
		req.Price = &v
	}

	product, err := h.service.Update(c.Request.Context(), id, callerID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, product)
}

// DeleteProduct xử lý DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		h.handleError(c, authz.ErrUnauthenticated)
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Product deleted"})
}

// DownloadProduct xử lý GET /products/:id/download (bearer, stream file)
func (h *ProductHandler) DownloadProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	dl, err := h.service.Download(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer dl.Body.Close()

	c.DataFromReader(http.StatusOK, -1, dl.ContentType, dl.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}),
	})
}

// ========================================
// HELPERS
// ========================================

// productID: id sai format coi như không tồn tại
func productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, model.ErrProductNotFound.Error())
		return uuid.Nil, false
	}
	return id, true
}

// openUploads mở image + file parts nếu có; closeAll luôn khác nil
func openUploads(c *gin.Context) (image, file *model.Upload, closeAll func(), err error) {
	var closers []io.Closer
	closeAll = func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}

	open := func(field string) (*model.Upload, error) {
		fh, err := c.FormFile(field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				return nil, nil
			}
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		return &model.Upload{Filename: fh.Filename, Content: f}, nil
	}

	if image, err = open(imageField); err != nil {
		return nil, nil, closeAll, err
	}
	if file, err = open(fileField); err != nil {
		return nil, nil, closeAll, err
	}
	return image, file, closeAll, nil
}

// handleError map domain errors thành HTTP responses
func (h *ProductHandler) handleError(c *gin.Context, err error) {
	var fieldErrs validation.Errors
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &fieldErrs):
		response.ValidationFailed(c, err)

	case errors.Is(err, asset.ErrInvalidImage):
		response.BadRequest(c, err.Error())

	case errors.Is(err, asset.ErrPayloadTooLarge), errors.As(err, &maxBytesErr):
		response.PayloadTooLarge(c, "Uploaded file is too large")

	case errors.Is(err, authz.ErrUnauthenticated):
		response.Unauthorized(c, "Not authorized, no token")

	case errors.Is(err, authz.ErrForbidden):
		response.Forbidden(c, "not authorized")

	case errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrNoFile),
		errors.Is(err, asset.ErrAssetNotFound):
		response.NotFound(c, err.Error())

	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.ContextRequestID)).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
		response.InternalServerError(c, "Internal server error")
	}
}
