package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrExists   = errors.New("user already exists")
	ErrNotFound = errors.New("user not found")
)

// User 用户模型
type User struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	DisplayName       string    `gorm:"size:64;not null" json:"display_name"`
	Email             string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"` // bcrypt
	PasswordChangedAt time.Time `gorm:"not null" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"-"`
}

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Create 邮箱重复时返回 ErrExists
	Create(ctx context.Context, u *User) error
	// UpdatePassword 同时刷新 password_changed_at，使之前签发的 token 失效
	UpdatePassword(ctx context.Context, id int64, hash string, changedAt time.Time) error
}
