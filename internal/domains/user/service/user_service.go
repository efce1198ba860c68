package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/domains/user"
	"marketplace-backend/pkg/cache"
	"marketplace-backend/pkg/jwt"
)

// bcrypt cost = 12: tests hạ xuống MinCost
var bcryptCost = 12

// productCachePattern: product views nhúng name/email của creator
const productCachePattern = "products:*"

// userService implement user.Service interface
type userService struct {
	repo   user.Repository
	tokens *jwt.Manager
	assets *asset.Manager
	cache  cache.Cache
}

func NewUserService(repo user.Repository, tokens *jwt.Manager, assets *asset.Manager, c cache.Cache) user.Service {
	return &userService{
		repo:   repo,
		tokens: tokens,
		assets: assets,
		cache:  c,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	newUser := &user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
	}
	// Unique constraint vẫn bắt được race giữa ExistsByEmail và Create
	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", newUser.ID.String()).Msg("User registered")
	return s.issue(newUser)
}

func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	return s.issue(u)
}

func (s *userService) issue(u *user.User) (*user.AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID.String(), u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &user.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      u.ToDTO(),
	}, nil
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

// UpdateProfile: stage ảnh mới -> persist -> commit -> xóa ảnh cũ.
// Persist lỗi thì ảnh mới bị xóa, ảnh cũ giữ nguyên.
func (s *userService) UpdateProfile(ctx context.Context, callerID uuid.UUID, req user.UpdateProfileRequest) (*user.UserDTO, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != current.Email {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email)
		if err != nil {
			return nil, fmt.Errorf("check email exists: %w", err)
		}
		if exists {
			return nil, user.ErrEmailAlreadyExists
		}
	}

	staging := s.assets.Stage()
	defer staging.Release(ctx)

	update := user.ProfileUpdate{
		Name:         current.Name,
		Email:        current.Email,
		Bio:          current.Bio,
		StoreName:    current.StoreName,
		ProfileImage: current.ProfileImage,
	}
	if req.ProfileImage != nil {
		ref, err := staging.StoreImage(ctx, req.ProfileImage.Content, req.ProfileImage.Filename)
		if err != nil {
			return nil, err
		}
		update.ProfileImage = ref
	}
	if req.Name != nil {
		update.Name = *req.Name
	}
	if req.Email != nil {
		update.Email = *req.Email
	}
	if req.Bio != nil {
		update.Bio = *req.Bio
	}
	if req.StoreName != nil {
		update.StoreName = *req.StoreName
	}

	updated, err := s.repo.UpdateProfile(ctx, callerID, update)
	if err != nil {
		return nil, err
	}
	staging.Commit()

	if update.ProfileImage != current.ProfileImage {
		s.assets.Remove(ctx, current.ProfileImage)
	}

	if err := s.cache.DeletePattern(ctx, productCachePattern); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate product cache after profile update")
	}

	dto := updated.ToDTO()
	return &dto, nil
}
