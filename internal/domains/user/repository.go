package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa contract cho data access layer
type Repository interface {
	// Create điền ID, CreatedAt, UpdatedAt vào u.
	// Returns: ErrEmailAlreadyExists nếu email đã tồn tại
	Create(ctx context.Context, u *User) error

	// Returns: ErrUserNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateProfile ghi đè các field profile.
	// Returns: ErrUserNotFound, ErrEmailAlreadyExists
	UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) (*User, error)

	// ListAssetRefs trả về mọi profile_image khác rỗng (orphan sweep)
	ListAssetRefs(ctx context.Context) ([]string, error)

	// HasImageRef: ref có phải profile_image của user nào không (/uploads public)
	HasImageRef(ctx context.Context, ref string) (bool, error)
}
