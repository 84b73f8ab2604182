package category

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("category not found")
	ErrExists   = errors.New("category already exists")
)

// Category 商品分类
type Category struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

// Repository 分类仓储接口
type Repository interface {
	List(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	// Create 名称重复时返回 ErrExists
	Create(ctx context.Context, c *Category) error
}
