package review

import (
	"context"
	"errors"
	"time"

	"github.com/example/goshop/internal/datamodels/product"
)

var (
	ErrExists   = errors.New("review already exists")
	ErrNotFound = errors.New("review not found")
)

// 评分取值范围
const (
	MinRating = 1
	MaxRating = 5
)

// Review 商品评论，每个用户对同一商品只能有一条
type Review struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:idx_reviews_user_product,priority:1;not null" json:"user_id"`
	ProductID int64     `gorm:"uniqueIndex:idx_reviews_user_product,priority:2;index;not null" json:"product_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"size:2048;not null" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Detail 评论 + 评论者昵称
type Detail struct {
	Review
	UserDisplayName string `json:"user_display_name"`
}

// Repository 评论仓储接口
type Repository interface {
	ListByProduct(ctx context.Context, productID int64) ([]*Detail, error)
	// Create 同一用户重复评论返回 ErrExists
	Create(ctx context.Context, r *Review) error
	// Update / Delete 评论不存在时返回 ErrNotFound
	Update(ctx context.Context, userID, productID int64, rating int, comment string) error
	Delete(ctx context.Context, userID, productID int64) error
	// RefreshRating 按当前评论重算 product_ratings，需与写评论在同一事务内调用
	RefreshRating(ctx context.Context, productID int64) (*product.Rating, error)
}
