package user

import (
	"context"

	"github.com/google/uuid"
)

// Service định nghĩa business logic layer contract
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	// UpdateProfile chỉ cho phép chính chủ (callerID lấy từ token)
	UpdateProfile(ctx context.Context, callerID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
}
