package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/domains/user"
	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/internal/shared/response"
)

const profileImageField = "profileImage"

// UserHandler xử lý HTTP requests cho auth + profile
type UserHandler struct {
	service       user.Service
	maxImageBytes int64
}

func NewUserHandler(service user.Service, maxImageBytes int64) *UserHandler {
	return &UserHandler{
		service:       service,
		maxImageBytes: maxImageBytes,
	}
}

// Register xử lý POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// Login xử lý POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Me xử lý GET /auth/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// GetUser xử lý GET /users/:id (public storefront profile)
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, user.ErrUserNotFound.Error())
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// storeNameField: web client gửi "storeName", API docs dùng "store_name"
func storeNameField(c *gin.Context) (string, bool) {
	if v, present := c.GetPostForm("store_name"); present {
		return v, true
	}
	return c.GetPostForm("storeName")
}

// UpdateProfile xử lý PUT /users/profile (multipart)
// Fields: name, email, bio, store_name (hoặc storeName), profileImage
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	// Ảnh + các text field, dư 1MB cho multipart overhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+1<<20)

	var req user.UpdateProfileRequest
	// name/email rỗng = không đổi; bio/store_name có mặt = ghi đè (cho phép xóa)
	if v := c.PostForm("name"); v != "" {
		req.Name = &v
	}
	if v := c.PostForm("email"); v != "" {
		req.Email = &v
	}
	if v, present := c.GetPostForm("bio"); present {
		req.Bio = &v
	}
	if v, present := storeNameField(c); present {
		req.StoreName = &v
	}

	fh, err := c.FormFile(profileImageField)
	switch {
	case err == nil:
		f, openErr := fh.Open()
		if openErr != nil {
			response.BadRequest(c, "Cannot read uploaded image")
			return
		}
		defer f.Close()
		req.ProfileImage = &user.ImageUpload{Filename: fh.Filename, Content: f}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		h.handleError(c, err)
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// handleError map domain errors thành HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var fieldErrs validation.Errors
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &fieldErrs):
		response.ValidationFailed(c, err)

	case errors.Is(err, asset.ErrInvalidImage):
		response.BadRequest(c, err.Error())

	case errors.Is(err, asset.ErrPayloadTooLarge), errors.As(err, &maxBytesErr):
		response.PayloadTooLarge(c, "Uploaded file is too large")

	case errors.Is(err, user.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())

	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(c, err.Error())

	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Conflict(c, err.Error())

	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.ContextRequestID)).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
		response.InternalServerError(c, "Internal server error")
	}
}
