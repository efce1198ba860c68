package user

import (
	"io"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// ========================================
// AUTH DTOs
// ========================================

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(2, 100),
		),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("invalid email format"),
			validation.Length(5, 255),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(6, 128).Error("password must be 6-128 characters"),
		),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

// ========================================
// PROFILE DTOs
// ========================================

// ImageUpload is an uploaded file part; Content is closed by the handler.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// UpdateProfileRequest: nil field = không thay đổi
type UpdateProfileRequest struct {
	Name         *string      `json:"name"`
	Email        *string      `json:"email"`
	Bio          *string      `json:"bio"`
	StoreName    *string      `json:"store_name"`
	ProfileImage *ImageUpload `json:"-"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.When(r.Name != nil,
				validation.Required.Error("name cannot be empty"),
				validation.Length(2, 100),
			),
		),
		validation.Field(&r.Email,
			validation.When(r.Email != nil,
				validation.Required.Error("email cannot be empty"),
				is.Email.Error("invalid email format"),
			),
		),
		validation.Field(&r.Bio, validation.Length(0, 2000)),
		validation.Field(&r.StoreName, validation.Length(0, 100)),
	)
}

// Normalize trims text fields and lowercases the email.
func (r *UpdateProfileRequest) Normalize() {
	for _, f := range []*string{r.Name, r.Bio, r.StoreName} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if r.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &e
	}
}

// UserDTO - public representation (safe to expose)
type UserDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	StoreName    string    `json:"store_name"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) ToDTO() UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Bio:          u.Bio,
		StoreName:    u.StoreName,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}
