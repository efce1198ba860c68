package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	user "marketplace-backend/internal/domains/user"
	"marketplace-backend/internal/infrastructure/database"
)

const emailConstraint = "users_email_key"

const userColumns = `id, name, email, password_hash, bio, store_name, profile_image, created_at, updated_at`

// postgresRepository là concrete implementation của user.Repository
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) user.Repository {
	return &postgresRepository{pool: pool}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Bio, &u.StoreName, &u.ProfileImage,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, bio, store_name, profile_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.Bio, u.StoreName, u.ProfileImage,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, emailConstraint) {
			return user.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil && err != user.ErrUserNotFound {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, err
}

func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil && err != user.ErrUserNotFound {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, err
}

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, id uuid.UUID, p user.ProfileUpdate) (*user.User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, bio = $4, store_name = $5, profile_image = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query,
		id, p.Name, p.Email, p.Bio, p.StoreName, p.ProfileImage,
	))
	if err != nil {
		if err == user.ErrUserNotFound {
			return nil, err
		}
		if database.IsUniqueViolation(err, emailConstraint) {
			return nil, user.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (r *postgresRepository) ListAssetRefs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT profile_image FROM users WHERE profile_image <> ''`)
	if err != nil {
		return nil, fmt.Errorf("list profile images: %w", err)
	}

	refs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan profile images: %w", err)
	}
	return refs, nil
}

func (r *postgresRepository) HasImageRef(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE profile_image = $1)`, ref).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check profile image ref: %w", err)
	}
	return exists, nil
}
