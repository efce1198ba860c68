package user

import (
	"time"

	"github.com/google/uuid"
)

// User là domain entity - ánh xạ 1:1 với bảng users
// Match với migration 000001_create_users_table.up.sql
type User struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Email string    `db:"email" json:"email"`

	PasswordHash string `db:"password_hash" json:"-"` // Never expose in JSON

	// Storefront profile
	Bio          string `db:"bio" json:"bio"`
	StoreName    string `db:"store_name" json:"store_name"`
	ProfileImage string `db:"profile_image" json:"profile_image"` // asset ref, "" khi chưa có

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileUpdate chứa các field đã được merge, repository ghi toàn bộ
type ProfileUpdate struct {
	Name         string
	Email        string
	Bio          string
	StoreName    string
	ProfileImage string
}
